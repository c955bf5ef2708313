package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"helmsman/internal/calendar"
	"helmsman/internal/domain"
	"helmsman/internal/models"
)

func (s *HTTPServer) handleGetAvailability(w http.ResponseWriter, r *http.Request) {
	offeringID := r.PathValue("id")

	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))
	if monthStr == "" {
		writeError(w, http.StatusBadRequest, "month is required")
		return
	}
	parsed, err := time.Parse("2006-01", monthStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}
	ym := calendar.YearMonth{Year: parsed.Year(), Month: parsed.Month()}

	slots, err := s.availability.GetAvailability(r.Context(), offeringID, ym)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"offering_id": offeringID,
		"month":       ym.String(),
		"days":        slots,
	})
}

type createReservationBody struct {
	OfferingID     string `json:"offering_id"`
	VesselID       string `json:"vessel_id,omitempty"`
	Start          string `json:"start"`
	PartySize      int    `json:"party_size"`
	GuestName      string `json:"guest_name"`
	GuestContact   string `json:"guest_contact,omitempty"`
	ManualOverride bool   `json:"manual_override,omitempty"`
	Actor          string `json:"actor,omitempty"`
}

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := time.Parse(time.RFC3339, body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start; expected RFC3339 timestamp")
		return
	}

	actor := body.Actor
	if actor == "" {
		actor = models.ActorGuest
	}

	reservation, err := s.reservations.CreateReservation(r.Context(), domain.CreateReservationRequest{
		OfferingID:     body.OfferingID,
		VesselID:       body.VesselID,
		Start:          start,
		PartySize:      body.PartySize,
		GuestName:      body.GuestName,
		GuestContact:   body.GuestContact,
		ManualOverride: body.ManualOverride,
		Actor:          actor,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.reservations.GetReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

type transitionBody struct {
	Target string `json:"target"`
	Actor  string `json:"actor,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (s *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request) {
	var body transitionBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	reservation, err := s.reservations.TransitionReservation(r.Context(), r.PathValue("id"),
		models.Status(body.Target), domain.TransitionContext{Actor: body.Actor, Reason: body.Reason})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

type weatherHoldBody struct {
	Reason         string   `json:"reason"`
	AutoGenerate   bool     `json:"auto_generate,omitempty"`
	ProposedStarts []string `json:"proposed_starts,omitempty"`
}

func (s *HTTPServer) handlePlaceWeatherHold(w http.ResponseWriter, r *http.Request) {
	var body weatherHoldBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var proposed []time.Time
	for _, raw := range body.ProposedStarts {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid proposed start: %s", raw))
			return
		}
		proposed = append(proposed, t)
	}

	reservation, offers, err := s.weather.PlaceWeatherHold(r.Context(), domain.WeatherHoldRequest{
		ReservationID:  r.PathValue("id"),
		Reason:         body.Reason,
		AutoGenerate:   body.AutoGenerate,
		ProposedStarts: proposed,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reservation": reservation,
		"offers":      offers,
	})
}

func (s *HTTPServer) handleRemoveWeatherHold(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.weather.RemoveWeatherHold(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *HTTPServer) handleSelectOffer(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.weather.SelectRescheduleOffer(r.Context(), r.PathValue("id"), r.PathValue("offerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *HTTPServer) handleExportSchedule(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "exports are not configured")
		return
	}

	monthStr := strings.TrimSpace(r.URL.Query().Get("month"))
	if monthStr == "" {
		writeError(w, http.StatusBadRequest, "month is required")
		return
	}
	parsed, err := time.Parse("2006-01", monthStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month format; expected YYYY-MM")
		return
	}

	captainID := r.PathValue("id")
	ym := calendar.YearMonth{Year: parsed.Year(), Month: parsed.Month()}
	data, err := s.exporter.MonthlySchedule(r.Context(), captainID, ym)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	filename := fmt.Sprintf("schedule-%s-%s.xlsx", captainID, ym.String())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// writeDomainError maps engine errors onto HTTP statuses. The taxonomy is
// deliberate: capacity and buffer rejections are 409 so clients can refresh
// availability and retry, expired offers are 410 Gone.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		transitionErr *domain.InvalidTransitionError
		conflictErr   *domain.ConflictError
		capacityErr   *domain.CapacityError
		expiredErr    *domain.ExpiredOfferError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": transitionErr.Error(),
			"from":  string(transitionErr.From),
			"to":    string(transitionErr.To),
		})
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":       conflictErr.Error(),
			"reason":      conflictErr.Reason,
			"conflicting": conflictErr.Conflicting,
		})
	case errors.As(err, &capacityErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     capacityErr.Error(),
			"requested": capacityErr.Requested,
			"remaining": capacityErr.Remaining,
		})
	case errors.As(err, &expiredErr):
		writeError(w, http.StatusGone, expiredErr.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
