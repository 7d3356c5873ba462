package models

type Profile struct {
	FullName            string   `json:"fullName" validate:"required,max=120"`
	Email               string   `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber         string   `json:"phoneNumber,omitempty"`
	EducationLevel      string   `json:"educationLevel" validate:"required,oneof=School Diploma Undergraduate Postgraduate"`
	PreferredPlatform   string   `json:"preferredPlatform,omitempty"`
	PrimaryInterests    []string `json:"primaryInterests,omitempty"`
	LearningGoals       string   `json:"learningGoals,omitempty"`
	PreferredDifficulty string   `json:"preferredDifficultyLevel,omitempty"`
	Hobbies             []string `json:"hobbies,omitempty"`
}

type AdminStats struct {
	AdminEmail    string   `json:"adminEmail"`
	TotalUsers    int      `json:"totalUsers"`
	TotalCourses  int      `json:"totalCourses"`
	TotalFeedback int      `json:"totalFeedback"`
	PlatformStats []string `json:"platformStats"`
}

type AdminUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SigninResponse is the body returned by POST /api/auth/signin.
type SigninResponse struct {
	UserID       string `json:"userId"`
	LoginID      string `json:"loginId"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	Token        string `json:"token"`
	AuthProvider string `json:"authProvider,omitempty"`
}

type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Username     string `json:"username" validate:"required,min=3,max=40"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role"`
	AuthProvider string `json:"authProvider"`
}

type OTPPurpose string

const (
	OTPVerification  OTPPurpose = "VERIFICATION"
	OTPPasswordReset OTPPurpose = "PASSWORD_RESET"
)
