package domain

import "time"

// DefaultPhotoName is used whenever the naming model gives nothing usable.
const DefaultPhotoName = "My Kissed Photo"

// User is the identity extracted from a verified ID token. It is never
// stored on its own, only snapshotted into Photo.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Photo is the persisted gallery record. GeneratedID and GeneratedURL are
// either both set or both nil.
type Photo struct {
	ID           string    `json:"id" bson:"_id"`
	UserID       string    `json:"userId" bson:"userId"`
	UserEmail    string    `json:"userEmail" bson:"userEmail"`
	UserName     string    `json:"userName" bson:"userName"`
	OriginalID   string    `json:"originalId" bson:"originalId"`
	GeneratedID  *string   `json:"generatedId" bson:"generatedId"`
	OriginalURL  string    `json:"originalUrl" bson:"originalUrl"`
	GeneratedURL *string   `json:"generatedUrl" bson:"generatedUrl"`
	PhotoName    string    `json:"photoName" bson:"photoName"`
	Prompt       string    `json:"prompt" bson:"prompt"`
	AIResponse   string    `json:"aiResponse" bson:"aiResponse"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasGenerated reports whether the photo carries a generated artifact.
func (p *Photo) HasGenerated() bool {
	return p.GeneratedID != nil && p.GeneratedURL != nil
}

// Owner is the display subset of a User echoed back in responses.
type Owner struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func OwnerOf(u *User) Owner {
	return Owner{Email: u.Email, Name: u.Name}
}

// ProcessingResult is returned by the processing pipeline for every
// successful request, whether or not an image was generated.
type ProcessingResult struct {
	Success      bool    `json:"success"`
	PhotoID      string  `json:"photoId"`
	PhotoName    string  `json:"photoName"`
	OriginalURL  string  `json:"originalUrl"`
	GeneratedURL *string `json:"generatedUrl"`
	AIResponse   string  `json:"aiResponse,omitempty"`
	Message      string  `json:"message"`
	User         Owner   `json:"user"`
}
