// Package urlparam reads typed chi URL parameters.
package urlparam

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses the named URL parameter. ok is false for a missing or
// malformed id, which handlers report as not found.
func ObjectID(r *http.Request, name string) (id primitive.ObjectID, ok bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id, err == nil
}
