package core

import "fmt"

// AgentRole identifies one of the specialised agents in the crew.
type AgentRole string

const (
	RoleScriptGenerator AgentRole = "script_generator"
	RoleArtDirector     AgentRole = "art_director"
	RoleScriptRefiner   AgentRole = "script_refiner"
)

// AgentRoles lists every role the crew knows about, in catalog order.
func AgentRoles() []AgentRole {
	return []AgentRole{RoleScriptGenerator, RoleArtDirector, RoleScriptRefiner}
}

// ParseAgentRole converts a catalog key into an AgentRole.
func ParseAgentRole(s string) (AgentRole, error) {
	for _, r := range AgentRoles() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown agent role %q", s)
}

// AgentDefinition captures the persona an agent generates with.
// Definitions are built once at startup and shared read-only.
type AgentDefinition struct {
	Role      AgentRole
	Label     string
	Goal      string
	Backstory string
}
