package access

import "github.com/geocoder89/devdeck/internal/apperr"

// Caller is the identity attached to a request. The zero value is anonymous.
type Caller struct {
	UserID int64
	Role   Role
}

func Anonymous() Caller {
	return Caller{}
}

func (c Caller) Authenticated() bool {
	return c.UserID > 0
}

type Action string

const (
	// anonymous
	ActionRegister      Action = "user.register"
	ActionLogin         Action = "user.login"
	ActionListProjects  Action = "project.list"
	ActionViewProject   Action = "project.view"
	ActionViewPortfolio Action = "user.portfolio"

	// any authenticated caller
	ActionReadOwnProfile   Action = "user.profile.read"
	ActionUpdateOwnProfile Action = "user.profile.update"
	ActionChangePassword   Action = "user.password.change"
	ActionDeleteOwnAccount Action = "user.delete_self"
	ActionSearchTalent     Action = "user.search_talent"
	ActionCreateProject    Action = "project.create"
	ActionUploadImage      Action = "upload.create"
	ActionSendMessage      Action = "message.send"
	ActionListOwnMessages  Action = "message.list_own"

	// owner or admin
	ActionUpdateProject Action = "project.update"
	ActionDeleteProject Action = "project.delete"

	// admin only
	ActionAdminAccess         Action = "admin.access"
	ActionAdminListUsers      Action = "admin.users.list"
	ActionAdminDeleteUser     Action = "admin.users.delete"
	ActionAdminUpdateRole     Action = "admin.users.role"
	ActionAdminListProjects   Action = "admin.projects.list"
	ActionAdminManageProjects Action = "admin.projects.manage"
)

// Resource describes the target of an action. OwnerID is zero when the
// action does not concern an owned record.
type Resource struct {
	OwnerID int64
}

func Owned(ownerID int64) Resource {
	return Resource{OwnerID: ownerID}
}

type Decision struct {
	allowed         bool
	unauthenticated bool
	reason          string
}

func Allow() Decision {
	return Decision{allowed: true}
}

func Deny(reason string) Decision {
	return Decision{reason: reason}
}

func (d Decision) Allowed() bool {
	return d.allowed
}

func (d Decision) Reason() string {
	return d.reason
}

// Err turns a denial into the error taxonomy. A missing identity is
// Unauthorized, insufficient rights are Forbidden.
func (d Decision) Err() error {
	if d.allowed {
		return nil
	}
	if d.unauthenticated {
		return apperr.Unauthorized("unauthorized", d.reason)
	}
	return apperr.Forbidden("forbidden", d.reason)
}

func Authorize(c Caller, action Action, res Resource) Decision {
	switch action {
	case ActionRegister, ActionLogin, ActionListProjects, ActionViewProject, ActionViewPortfolio:
		return Allow()
	}

	if !c.Authenticated() {
		return Decision{unauthenticated: true, reason: "authentication required"}
	}

	switch action {
	case ActionReadOwnProfile,
		ActionUpdateOwnProfile,
		ActionChangePassword,
		ActionDeleteOwnAccount,
		ActionSearchTalent,
		ActionCreateProject,
		ActionUploadImage,
		ActionSendMessage,
		ActionListOwnMessages:
		return Allow()

	case ActionUpdateProject, ActionDeleteProject:
		if isAdmin(c.Role) || (res.OwnerID != 0 && res.OwnerID == c.UserID) {
			return Allow()
		}
		return Deny("you do not have permission to modify this project")

	case ActionAdminAccess,
		ActionAdminListUsers,
		ActionAdminDeleteUser,
		ActionAdminUpdateRole,
		ActionAdminListProjects,
		ActionAdminManageProjects:
		if isAdmin(c.Role) {
			return Allow()
		}
		return Deny("admin role required")

	default:
		return Deny("unknown action")
	}
}

func isAdmin(r Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleDev, RoleRecruiter:
		return false
	default:
		return false
	}
}

// View selects which projection of a user record a caller may see.
type View int

const (
	ViewPublic View = iota
	ViewPrivate
)

// Visibility returns the private view for the subject themselves and for
// admins, and the public view for everyone else.
func Visibility(c Caller, subjectID int64) View {
	if !c.Authenticated() {
		return ViewPublic
	}
	if c.UserID == subjectID || isAdmin(c.Role) {
		return ViewPrivate
	}
	return ViewPublic
}
