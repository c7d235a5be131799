package profile

import "time"

type Profile struct {
	ID        string     `json:"id"`
	ClerkID   string     `json:"clerkId"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	AvatarURL *string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateProfileRequest struct {
	ClerkID   string  `json:"clerk_id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}
