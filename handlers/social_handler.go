package handlers

import (
	"context"
	"net/http"

	"habitsAPI/internal/types/friendship"
	"habitsAPI/services"
)

type SocialHandler struct {
	socialService *services.SocialService
	userService   *services.UserService
}

func NewSocialHandler(socialService *services.SocialService, userService *services.UserService) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
		userService:   userService,
	}
}

// GET /api/v1/social/search?q=
func (h *SocialHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.userService.SearchUsers(ctx, userID, r.URL.Query().Get("q"))
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

// POST /api/v1/social/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req friendship.FollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, created, err := h.socialService.Follow(ctx, userID, &req)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, resp)
}

// POST /api/v1/social/unfollow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req friendship.UnfollowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.socialService.Unfollow(ctx, userID, &req); err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Unfollowed successfully"})
}

// GET /api/v1/social/friends
func (h *SocialHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.socialService.ListFriends(ctx, userID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

// GET /api/v1/social/activity
func (h *SocialHandler) GetActivityFeed(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	feed, err := h.socialService.ActivityFeed(ctx, userID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, feed)
}

// GET /api/v1/social/profile/{userId}
func (h *SocialHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathUUID(w, r, "userId")
	if !ok {
		return
	}

	profile, err := h.socialService.Profile(ctx, userID, targetID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}
