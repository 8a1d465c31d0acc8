package models

import "encoding/json"

// StaffUser is the canonical staff profile. The backend has served this
// record in two historical shapes (snake_case and camelCase); normalization
// happens once here so nothing downstream branches on field names.
type StaffUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (u *StaffUser) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        FlexID `json:"id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		FullName  string `json:"full_name"`
		FullNameC string `json:"fullName"`
		Role      string `json:"role"`
		UserRole  string `json:"user_role"`
		UserRoleC string `json:"userRole"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.ID = string(raw.ID)
	u.Email = raw.Email
	u.Name = firstNonEmpty(raw.Name, raw.FullName, raw.FullNameC)
	u.Role = firstNonEmpty(raw.Role, raw.UserRole, raw.UserRoleC)
	return nil
}

// Credential is the long-lived pair persisted across sessions: the refresh
// token and the last-known staff profile. Owned exclusively by the
// credential store; the session manager is its only caller.
type Credential struct {
	RefreshToken string    `json:"refresh_token"`
	User         StaffUser `json:"user"`
}

// FlexID tolerates identifiers served as either JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = FlexID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*f = FlexID(asNumber.String())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
