package rbac

import "hrdesk/internal/models"

// Resources guarded by capabilities. "<resource>:read" lets a member work
// with its own rows, "<resource>:manage" opens every row of the org.
const (
	Members    = "members"
	Roles      = "roles"
	Attendance = "attendance"
	Leave      = "leave"
	Tasks      = "tasks"
	Projects   = "projects"
	Schedules  = "schedules"
	Messages   = "messages"
	Events     = "events"
	Reports    = "reports"
	Documents  = "documents"
	Analytics  = "analytics"
	Audit      = "audit"
	Devices    = "devices"
	Assistant  = "assistant"
)

// AssistantUse gates the LLM proxy.
const AssistantUse = "assistant:use"

type CapabilityDef struct {
	Key         string `json:"key"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Catalog lists every capability known to the service.
func Catalog() []CapabilityDef {
	var out []CapabilityDef
	for _, r := range []string{Members, Attendance, Leave, Tasks, Projects, Schedules, Messages, Events, Reports, Documents} {
		out = append(out,
			CapabilityDef{Key: Read(r), Resource: r, Action: "read", Description: "Use " + r},
			CapabilityDef{Key: Manage(r), Resource: r, Action: "manage", Description: "Manage all " + r},
		)
	}
	out = append(out,
		CapabilityDef{Key: Read(Roles), Resource: Roles, Action: "read", Description: "View roles"},
		CapabilityDef{Key: Manage(Roles), Resource: Roles, Action: "manage", Description: "Manage roles and assignments"},
		CapabilityDef{Key: Read(Analytics), Resource: Analytics, Action: "read", Description: "View analytics"},
		CapabilityDef{Key: Read(Audit), Resource: Audit, Action: "read", Description: "View audit logs"},
		CapabilityDef{Key: Manage(Devices), Resource: Devices, Action: "manage", Description: "Register kiosks"},
		CapabilityDef{Key: AssistantUse, Resource: Assistant, Action: "use", Description: "Use the assistant"},
	)
	return out
}

// Defaults maps the system role slugs to their capability keys.
func Defaults() map[string][]string {
	all := make([]string, 0)
	for _, c := range Catalog() {
		all = append(all, c.Key)
	}

	employee := []string{AssistantUse}
	for _, r := range []string{Members, Attendance, Leave, Tasks, Projects, Schedules, Messages, Events, Reports, Documents} {
		employee = append(employee, Read(r))
	}

	manager := append([]string{}, employee...)
	for _, r := range []string{Attendance, Leave, Tasks, Projects, Schedules, Events, Reports, Documents} {
		manager = append(manager, Manage(r))
	}
	manager = append(manager, Read(Analytics), Read(Roles))

	return map[string][]string{
		models.RoleAdmin:    all,
		models.RoleManager:  manager,
		models.RoleEmployee: employee,
	}
}
