package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/types/user"
	"habitsAPI/services"
)

// svix rejects deliveries whose timestamp is further than this from now.
const webhookTolerance = 5 * time.Minute

type clerkWebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type clerkEmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
	Verification struct {
		Status string `json:"status"`
	} `json:"verification"`
}

type clerkUserData struct {
	ID                    string              `json:"id"`
	Username              string              `json:"username"`
	FirstName             string              `json:"first_name"`
	LastName              string              `json:"last_name"`
	ImageURL              string              `json:"image_url"`
	ProfileImageURL       string              `json:"profile_image_url"`
	PrimaryEmailAddressID string              `json:"primary_email_address_id"`
	EmailAddresses        []clerkEmailAddress `json:"email_addresses"`
}

func (d *clerkUserData) primaryEmail() (string, bool) {
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			return e.EmailAddress, e.Verification.Status == "verified"
		}
	}
	if len(d.EmailAddresses) > 0 {
		e := d.EmailAddresses[0]
		return e.EmailAddress, e.Verification.Status == "verified"
	}
	return "", false
}

func (d *clerkUserData) username(email string) string {
	if d.Username != "" {
		return d.Username
	}
	if name := d.FirstName + d.LastName; name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (d *clerkUserData) imageURL() string {
	if d.ImageURL != "" {
		return d.ImageURL
	}
	return d.ProfileImageURL
}

type WebhookHandler struct {
	userService *services.UserService
	secret      []byte
	now         func() time.Time
}

// NewWebhookHandler takes the Clerk signing secret ("whsec_..."). With an empty
// secret signatures are not checked.
func NewWebhookHandler(userService *services.UserService, signingSecret string) (*WebhookHandler, error) {
	h := &WebhookHandler{userService: userService, now: time.Now}
	if signingSecret == "" {
		logger.Warn("CLERK_WEBHOOK_SECRET not set, webhook signatures will not be verified")
		return h, nil
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(signingSecret, "whsec_"))
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signing secret: %w", err)
	}
	h.secret = key
	return h, nil
}

// POST /webhooks/clerk
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("error reading webhook body", "err", err)
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verifySignature(r.Header, body); err != nil {
		logger.Warn("invalid webhook signature", "err", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	logger.Info("received webhook event", "type", event.Type)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch event.Type {
	case "user.created":
		err = h.handleUserCreated(ctx, event.Data)
	case "user.updated":
		err = h.handleUserUpdated(ctx, event.Data)
	case "user.deleted":
		err = h.handleUserDeleted(ctx, event.Data)
	default:
		logger.Debug("unhandled webhook event type", "type", event.Type)
	}
	if err != nil {
		logger.Error("error processing webhook", "type", event.Type, "err", err)
		respondWithDomainError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData clerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperrors.Validation("invalid user payload").WithCause(err)
	}

	email, verified := userData.primaryEmail()
	u, err := h.userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:       userData.ID,
		Email:         email,
		Username:      userData.username(email),
		FirstName:     userData.FirstName,
		LastName:      userData.LastName,
		ImageURL:      userData.imageURL(),
		EmailVerified: verified,
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) {
			// redelivery
			logger.Info("user already provisioned", "clerk_id", userData.ID)
			return nil
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("provisioned user from webhook", "user_id", u.ID, "clerk_id", u.ClerkID)
	return nil
}

func (h *WebhookHandler) handleUserUpdated(ctx context.Context, data json.RawMessage) error {
	var userData clerkUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperrors.Validation("invalid user payload").WithCause(err)
	}

	email, verified := userData.primaryEmail()
	_, err := h.userService.UpdateProfileByClerkID(ctx, userData.ID, &user.UpdateProfileRequest{
		Username:  userData.username(email),
		FirstName: userData.FirstName,
		LastName:  userData.LastName,
		ImageURL:  userData.imageURL(),
	})
	if apperrors.Is(err, apperrors.ErrNotFound) {
		// the created event never arrived
		return h.handleUserCreated(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := h.userService.UpdateEmailVerification(ctx, userData.ID, verified); err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return apperrors.Validation("invalid user payload").WithCause(err)
	}

	err := h.userService.DeleteUserByClerkID(ctx, userData.ID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

// verifySignature checks the svix headers: the v1 signature is the base64
// HMAC-SHA256 of "id.timestamp.body".
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	if h.secret == nil {
		return nil
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return fmt.Errorf("missing signature headers")
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", svixTimestamp)
	}
	if d := h.now().Sub(time.Unix(ts, 0)); d > webhookTolerance || d < -webhookTolerance {
		return fmt.Errorf("timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, h.secret)
	fmt.Fprintf(mac, "%s.%s.", svixID, svixTimestamp)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(svixSignature) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(value), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}
