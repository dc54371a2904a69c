package misp

// User is a platform account. Credentials stay on the element so they can be
// read after hydration, but they never appear in Keys or serialized output.
type User struct {
	Element
}

var userSchema = Schema{
	"Organisation": {New: func() Entity { return NewOrganisation() }},
	"Role":         {New: func() Entity { return NewRole() }},
}

// NewUser returns an empty user with authkey and password excluded from
// serialization.
func NewUser() *User {
	u := &User{Element: NewElement(userSchema)}
	u.Exclude("authkey", "password")
	return u
}

// FromMap hydrates the user, unwrapping {"User": {...}}.
func (u *User) FromMap(m map[string]any) error {
	if inner, ok := m["User"].(map[string]any); ok {
		m = inner
	}
	return u.Element.FromMap(m)
}

func (u *User) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return u.FromMap(m)
}

// Email returns the account email.
func (u *User) Email() string { return u.stringField("email") }

// Role describes the permission set granted to a user.
type Role struct {
	Element
}

// NewRole returns an empty role.
func NewRole() *Role {
	return &Role{Element: NewElement(nil)}
}

// FromMap hydrates the role, unwrapping {"Role": {...}}.
func (r *Role) FromMap(m map[string]any) error {
	if inner, ok := m["Role"].(map[string]any); ok {
		m = inner
	}
	return r.Element.FromMap(m)
}

func (r *Role) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return r.FromMap(m)
}
