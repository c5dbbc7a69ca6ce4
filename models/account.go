package models

import "time"

// User is the profile returned by GET /api/user.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	Bio              string    `json:"bio,omitempty"`
	AvatarURL        string    `json:"avatarUrl,omitempty"`
	Role             string    `json:"role,omitempty"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
}

// IsAdmin reports whether the profile may use the admin editors.
func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// ProfileUpdate is the body of PUT /api/user. Nil fields are left untouched.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	Username  *string `json:"username,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// LoginSession is one entry of the login history.
type LoginSession struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser,omitempty"`
	IPAddress string    `json:"ipAddress"`
	Location  string    `json:"location,omitempty"`
	LoginAt   time.Time `json:"loginAt"`
	Current   bool      `json:"current"`
}

// EmailPreferences toggles which notification emails the account receives.
type EmailPreferences struct {
	Newsletter     bool `json:"newsletter"`
	ProductUpdates bool `json:"productUpdates"`
	SecurityAlerts bool `json:"securityAlerts"`
	BlogDigest     bool `json:"blogDigest"`
	Marketing      bool `json:"marketing"`
}

// TwoFactorSetup is returned when 2FA enrolment starts.
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode,omitempty"`
}

// TwoFactorCode carries a one-time code for verify and disable.
type TwoFactorCode struct {
	Code string `json:"code"`
}

// TwoFactorStatus is the answer to verify and disable.
type TwoFactorStatus struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}
