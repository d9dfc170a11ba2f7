//go:build unit

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/handler/api"
	"bike-reserve/internal/handler/middleware"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/commands"
	"bike-reserve/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubReservationCommands struct {
	confirmOutcome commands.TransitionOutcome
	confirmErr     error
}

func (s *stubReservationCommands) Reserve(_ context.Context, _ commands.ReserveParams) (*reservation.Reservation, error) {
	return nil, errs.ErrDatabaseOperationFailed
}

func (s *stubReservationCommands) Confirm(_ context.Context, _ commands.Actor, _ uuid.UUID) (commands.TransitionOutcome, error) {
	return s.confirmOutcome, s.confirmErr
}

func (s *stubReservationCommands) Cancel(_ context.Context, _ commands.Actor, _ uuid.UUID, _ string) (commands.TransitionOutcome, error) {
	return commands.TransitionOutcome{}, nil
}

func (s *stubReservationCommands) Expire(_ context.Context, _ uuid.UUID) (commands.TransitionOutcome, error) {
	return commands.TransitionOutcome{}, nil
}

func (s *stubReservationCommands) NotifyNearExpiry(_ context.Context) (int, error) { return 0, nil }
func (s *stubReservationCommands) SweepExpired(_ context.Context) (int, error)     { return 0, nil }
func (s *stubReservationCommands) ScheduleWalletDebit(_ context.Context, _ uuid.UUID, _ int64, _ string, _ time.Time) error {
	return nil
}

type stubReservationQueries struct {
	view *queries.ReservationView
	err  error
}

func (s *stubReservationQueries) GetByID(_ context.Context, _ uuid.UUID, _ bool, _ uuid.UUID) (*queries.ReservationView, error) {
	return s.view, s.err
}

func (s *stubReservationQueries) ListByUser(_ context.Context, _ uuid.UUID) ([]*queries.ReservationView, error) {
	return nil, s.err
}

type ReservationHandlerTestSuite struct {
	suite.Suite
	router   *gin.Engine
	commands *stubReservationCommands
	queries  *stubReservationQueries
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.commands = &stubReservationCommands{}
	s.queries = &stubReservationQueries{}

	handler := api.NewReservationHandler(s.commands, s.queries)
	group := s.router.Group("/api/reservations")
	group.Use(middleware.RequireIdentity())
	group.POST("/:id/confirm", handler.ConfirmReservation)
	group.GET("/:id", handler.GetReservation)
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) request(method, path string, identified bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if identified {
		req.Header.Set("X-User-ID", uuid.New().String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ReservationHandlerTestSuite) TestConfirmUnknownReservation() {
	s.commands.confirmErr = errs.ErrReservationNotFound

	rec := s.request(http.MethodPost, "/api/reservations/"+uuid.New().String()+"/confirm", true)

	s.Equal(http.StatusNotFound, rec.Code)
	s.JSONEq(`{"error":{"message":"Reservation not found"}}`, rec.Body.String())
}

func (s *ReservationHandlerTestSuite) TestConfirmForeignReservation() {
	s.commands.confirmErr = errs.ErrNotReservationOwner

	rec := s.request(http.MethodPost, "/api/reservations/"+uuid.New().String()+"/confirm", true)

	s.Equal(http.StatusForbidden, rec.Code)
	s.JSONEq(`{"error":{"message":"Reservation belongs to another user"}}`, rec.Body.String())
}

func (s *ReservationHandlerTestSuite) TestConfirmLostRace() {
	s.commands.confirmOutcome = commands.TransitionOutcome{
		Applied: false,
		Status:  reservation.StatusCancelled,
	}

	rec := s.request(http.MethodPost, "/api/reservations/"+uuid.New().String()+"/confirm", true)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"applied":false,"status":"cancelled"}`, rec.Body.String())
}

func (s *ReservationHandlerTestSuite) TestConfirmRejectsMalformedID() {
	rec := s.request(http.MethodPost, "/api/reservations/not-a-uuid/confirm", true)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.JSONEq(`{"error":{"message":"Invalid reservation ID format"}}`, rec.Body.String())
}

func (s *ReservationHandlerTestSuite) TestConfirmRequiresIdentity() {
	rec := s.request(http.MethodPost, "/api/reservations/"+uuid.New().String()+"/confirm", false)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ReservationHandlerTestSuite) TestGetReservationHidesInternalDetail() {
	s.queries.err = errs.ErrDatabaseOperationFailed

	rec := s.request(http.MethodGet, "/api/reservations/"+uuid.New().String(), true)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.JSONEq(`{"error":{"message":"Internal server error"}}`, rec.Body.String())
}
