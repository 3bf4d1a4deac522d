package handlers

import (
	"context"
	"net/http"

	"habitsAPI/internal/day"
	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/types/habit"
	"habitsAPI/services"
)

type HabitHandler struct {
	habitService *services.HabitService
}

func NewHabitHandler(habitService *services.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

// GET /api/v1/habits
func (h *HabitHandler) ListHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	habits, err := h.habitService.ListHabits(ctx, userID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, habits)
}

// POST /api/v1/habits
func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req habit.CreateHabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.habitService.CreateHabit(ctx, userID, &req)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// PUT /api/v1/habits/{id}
func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req habit.UpdateHabitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.habitService.UpdateHabit(ctx, userID, habitID, &req)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/habits/{id}
func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.habitService.DeleteHabit(ctx, userID, habitID); err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

// POST /api/v1/habits/{id}/toggle
func (h *HabitHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	resp, err := h.habitService.ToggleCompletion(ctx, userID, habitID)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// GET /api/v1/habits/{id}/completions?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *HabitHandler) GetCompletions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	habitID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	from, err := queryDay(r, "from")
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	to, err := queryDay(r, "to")
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	history, err := h.habitService.GetHistory(ctx, userID, habitID, from, to)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, history)
}

// queryDay returns the zero Day when the parameter is absent.
func queryDay(r *http.Request, name string) (day.Day, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return day.Day{}, nil
	}
	d, err := day.Parse(v)
	if err != nil {
		return day.Day{}, apperrors.ValidationWithDetails("invalid date", map[string]string{name: "must be YYYY-MM-DD"})
	}
	return d, nil
}
