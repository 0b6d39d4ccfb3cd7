package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/brift-backend/internal/logger"
	"github.com/AnshRaj112/brift-backend/internal/models"
)

// idRequest carries user_id and the optional <entity>_id of fetch, update and delete bodies.
type idRequest map[string]any

func (req idRequest) str(key string) string {
	s, _ := req[key].(string)
	return strings.TrimSpace(s)
}

func isUser(entity string) bool {
	e := strings.ToLower(entity)
	return e == "user" || e == "users"
}

// schemaFor resolves {entity}, writing 404 for unknown names.
func schemaFor(w http.ResponseWriter, r *http.Request) (models.Schema, bool) {
	name := chi.URLParam(r, "entity")
	s, ok := models.LookupSchema(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, Response{Message: fmt.Sprintf("Unknown entity %q", name)})
	}
	return s, ok
}

// Create handles POST /create/{entity}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if isUser(chi.URLParam(r, "entity")) {
		h.createUser(w, r)
		return
	}
	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	rec := schema.NewRecord()
	if err := decodeBody(w, r, rec); err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorize(r, rec.OwnerID()); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()
	id, err := h.Entities.Create(ctx, schema.Collection, rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Message: fmt.Sprintf("%s created successfully", capitalize(schema.Singular)),
		ID:      id,
		Data:    map[string]string{schema.IDField(): id},
	})
}

// Fetch handles POST /fetch/{entity}. Without <entity>_id the whole collection is returned.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID := req.str("user_id")
	if err := authorize(r, userID); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	if isUser(chi.URLParam(r, "entity")) {
		user, err := h.Users.Fetch(ctx, userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Message: "User fetched successfully", ID: userID, Data: user})
		return
	}

	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	itemID := req.str(schema.IDField())
	if itemID == "" {
		items, err := h.Entities.FetchAll(ctx, schema.Collection, userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, Response{Message: fmt.Sprintf("%s fetched successfully", capitalize(schema.Name)), Data: items})
		return
	}
	rec, err := h.Entities.Fetch(ctx, schema.Collection, userID, itemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: fmt.Sprintf("%s fetched successfully", capitalize(schema.Singular)), ID: itemID, Data: rec})
}

// Update handles PATCH /update/{entity}. Only the fields present in the body change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if isUser(chi.URLParam(r, "entity")) {
		h.updateUser(w, r)
		return
	}
	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	var req idRequest
	p := schema.NewPatch()
	if err := decodeBody(w, r, &req, p); err != nil {
		writeError(w, r, err)
		return
	}
	userID, itemID := req.str("user_id"), req.str(schema.IDField())
	if err := authorize(r, userID); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()
	if err := h.Entities.Update(ctx, schema.Collection, userID, itemID, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: fmt.Sprintf("%s updated successfully", capitalize(schema.Singular)), ID: itemID})
}

// Delete handles DELETE /delete/{entity}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID := req.str("user_id")
	if err := authorize(r, userID); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	if isUser(chi.URLParam(r, "entity")) {
		if err := h.Users.Delete(ctx, userID); err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.Sessions.InvalidateUserSessions(ctx, userID); err != nil {
			h.Log.WarnContext(ctx, "failed to revoke sessions of deleted user", logger.FieldUserID, userID, logger.FieldError, err)
		}
		writeJSON(w, http.StatusOK, Response{Message: "User deleted successfully", ID: userID})
		return
	}

	schema, ok := schemaFor(w, r)
	if !ok {
		return
	}
	itemID := req.str(schema.IDField())
	if err := h.Entities.Delete(ctx, schema.Collection, userID, itemID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: fmt.Sprintf("%s deleted successfully", capitalize(schema.Singular)), ID: itemID})
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	profile, settings := req.Split()

	ctx, cancel := h.storeContext(r)
	defer cancel()
	userID, err := h.Users.Create(ctx, profile, settings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Message: "User created successfully",
		ID:      userID,
		Data:    map[string]string{"user_id": userID},
	})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var p models.UserPatch
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	userID := strings.TrimSpace(p.UserID)
	if err := authorize(r, userID); err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()
	if err := h.Users.Update(ctx, userID, p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Password.Set {
		if err := h.Sessions.InvalidateUserSessions(ctx, userID); err != nil {
			h.Log.WarnContext(ctx, "failed to revoke sessions after password change", logger.FieldUserID, userID, logger.FieldError, err)
		}
	}
	writeJSON(w, http.StatusOK, Response{Message: "User updated successfully", ID: userID})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
