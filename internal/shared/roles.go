package shared

// Role types distinguish platform staff roles from end-user roles.
const (
	RoleTypeAdmin = "admin"
	RoleTypeUser  = "user"
)

// Role categories group roles by the product area they unlock.
const (
	RoleCategoryPlatform        = "platform"
	RoleCategoryElectionCreator = "election_creator"
	RoleCategoryVoter           = "voter"
	RoleCategorySponsor         = "sponsor"
)

// Assignment types record how an assignment came to exist.
const (
	AssignmentAutomatic       = "automatic"
	AssignmentManual          = "manual"
	AssignmentSubscription    = "subscription"
	AssignmentActionTriggered = "action_triggered"
)

// Action triggers for roles that require a user action before assignment.
const (
	TriggerCreateElection     = "create_election"
	TriggerCreateOrgElection  = "create_organization_election"
	TriggerContentIntegration = "content_integration"
	TriggerDepositFunds       = "deposit_funds"
)

// BaselineRole is the mandatory role every user retains at least one active
// assignment of. Matched case-insensitively by the assignment engine.
const BaselineRole = "Voter"

// DefaultRole is the role automatically assigned to new users.
const DefaultRole = "Voter (Free)"

// RoleDefinition describes one platform role the seeder ships.
type RoleDefinition struct {
	Name                 string
	Type                 string
	Category             string
	RequiresSubscription bool
	ActionTrigger        string
}

// AdminRoles lists the platform staff roles.
var AdminRoles = []RoleDefinition{
	{Name: "Manager", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
	{Name: "Admin", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
	{Name: "Moderator", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
	{Name: "Auditor", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
	{Name: "Editor", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
	{Name: "Advertiser", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
	{Name: "Analyst", Type: RoleTypeAdmin, Category: RoleCategoryPlatform},
}

// UserRoles lists the end-user roles. Action-triggered roles name the user
// action that earns them; subscription roles require an active subscription.
var UserRoles = []RoleDefinition{
	{Name: "Voter (Free)", Type: RoleTypeUser, Category: RoleCategoryVoter},
	{Name: "Individual Election Creator (Free)", Type: RoleTypeUser,
		Category: RoleCategoryElectionCreator, ActionTrigger: TriggerCreateElection},
	{Name: "Individual Election Creator (Subscribed)", Type: RoleTypeUser,
		Category: RoleCategoryElectionCreator, RequiresSubscription: true, ActionTrigger: TriggerCreateElection},
	{Name: "Organization Election Creator (Free)", Type: RoleTypeUser,
		Category: RoleCategoryElectionCreator, ActionTrigger: TriggerCreateOrgElection},
	{Name: "Organization Election Creator (Subscribed)", Type: RoleTypeUser,
		Category: RoleCategoryElectionCreator, RequiresSubscription: true, ActionTrigger: TriggerCreateOrgElection},
	{Name: "Content Creator (Subscribed)", Type: RoleTypeUser,
		Category: RoleCategoryElectionCreator, RequiresSubscription: true, ActionTrigger: TriggerContentIntegration},
	{Name: "Sponsor", Type: RoleTypeUser,
		Category: RoleCategorySponsor, ActionTrigger: TriggerDepositFunds},
}

// ValidAssignmentType reports whether t is a known assignment type.
func ValidAssignmentType(t string) bool {
	switch t {
	case AssignmentAutomatic, AssignmentManual, AssignmentSubscription, AssignmentActionTriggered:
		return true
	}
	return false
}
