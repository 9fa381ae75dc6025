package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post stored in MongoDB. A post with a ParentID is a
// reply and surfaces in its parent's thread, never in follower feeds.
type Post struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID  uint                `json:"author_id" bson:"author_id"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Content   string              `json:"content" bson:"content"`
	ImageURLs []string            `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

// IsReply reports whether the post is a reply to another post.
func (p *Post) IsReply() bool {
	return p.ParentID != nil
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=280"`
	ParentID  string   `json:"parent_id,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
}
