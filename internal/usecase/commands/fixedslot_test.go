//go:build unit

package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type TemplateCommandsTestSuite struct {
	suite.Suite
	repo     *fakeTemplateRepo
	clock    *clock.MockClock
	commands commands.TemplateCommands
}

func (s *TemplateCommandsTestSuite) SetupTest() {
	s.repo = newFakeTemplateRepo()
	s.clock = clock.NewMockClock(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.commands = commands.NewTemplateCommands(s.repo, &fakePool{}, s.clock, logger)
}

func TestTemplateCommandsSuite(t *testing.T) {
	suite.Run(t, new(TemplateCommandsTestSuite))
}

func (s *TemplateCommandsTestSuite) validParams(userID uuid.UUID) commands.CreateTemplateParams {
	return commands.CreateTemplateParams{
		UserID:    userID,
		StationID: uuid.New(),
		SlotStart: "09:00",
		SlotEnd:   "11:00",
		Days:      []int{1, 3, 5},
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func (s *TemplateCommandsTestSuite) TestCreateTemplate() {
	userID := uuid.New()

	s.Run("valid params create an active template", func() {
		tpl, err := s.commands.CreateTemplate(context.Background(), s.validParams(userID))

		s.Require().NoError(err)
		s.Equal(userID, tpl.UserID())
		s.Equal(fixedslot.StatusActive, tpl.Status())
		s.Contains(s.repo.byID, tpl.ID())
	})

	s.Run("malformed slot start", func() {
		params := s.validParams(userID)
		params.SlotStart = "25:00"

		_, err := s.commands.CreateTemplate(context.Background(), params)
		s.ErrorIs(err, errs.ErrDomainValidation)
	})

	s.Run("slot end before slot start", func() {
		params := s.validParams(userID)
		params.SlotEnd = "08:00"

		_, err := s.commands.CreateTemplate(context.Background(), params)
		s.ErrorIs(err, errs.ErrDomainValidation)
	})

	s.Run("empty day set", func() {
		params := s.validParams(userID)
		params.Days = nil

		_, err := s.commands.CreateTemplate(context.Background(), params)
		s.ErrorIs(err, errs.ErrDomainValidation)
	})

	s.Run("inverted date range", func() {
		params := s.validParams(userID)
		params.EndDate = params.StartDate.AddDate(0, 0, -1)

		_, err := s.commands.CreateTemplate(context.Background(), params)
		s.ErrorIs(err, errs.ErrDomainValidation)
	})
}

func (s *TemplateCommandsTestSuite) createTemplate(userID uuid.UUID) *fixedslot.Template {
	tpl, err := s.commands.CreateTemplate(context.Background(), s.validParams(userID))
	s.Require().NoError(err)
	return tpl
}

func (s *TemplateCommandsTestSuite) TestPauseResume() {
	userID := uuid.New()
	owner := commands.Actor{UserID: userID}
	tpl := s.createTemplate(userID)

	s.Require().NoError(s.commands.PauseTemplate(context.Background(), owner, tpl.ID()))
	s.Equal(fixedslot.StatusPaused, tpl.Status())

	s.Require().NoError(s.commands.ResumeTemplate(context.Background(), owner, tpl.ID()))
	s.Equal(fixedslot.StatusActive, tpl.Status())
}

func (s *TemplateCommandsTestSuite) TestResumeActiveTemplateRejected() {
	userID := uuid.New()
	tpl := s.createTemplate(userID)

	err := s.commands.ResumeTemplate(context.Background(), commands.Actor{UserID: userID}, tpl.ID())
	s.ErrorIs(err, errs.ErrDomainValidation)
}

func (s *TemplateCommandsTestSuite) TestCancelIsTerminal() {
	userID := uuid.New()
	owner := commands.Actor{UserID: userID}
	tpl := s.createTemplate(userID)

	s.Require().NoError(s.commands.CancelTemplate(context.Background(), owner, tpl.ID()))
	s.Equal(fixedslot.StatusCancelled, tpl.Status())

	s.ErrorIs(s.commands.PauseTemplate(context.Background(), owner, tpl.ID()), errs.ErrDomainValidation)
	s.ErrorIs(s.commands.ResumeTemplate(context.Background(), owner, tpl.ID()), errs.ErrDomainValidation)
}

func (s *TemplateCommandsTestSuite) TestOwnership() {
	userID := uuid.New()
	tpl := s.createTemplate(userID)

	s.Run("stranger is rejected", func() {
		err := s.commands.PauseTemplate(context.Background(), commands.Actor{UserID: uuid.New()}, tpl.ID())
		s.True(errors.Is(err, errs.ErrNotTemplateOwner))
	})

	s.Run("staff may act on any template", func() {
		staff := commands.Actor{UserID: uuid.New(), IsStaff: true}
		s.NoError(s.commands.PauseTemplate(context.Background(), staff, tpl.ID()))
	})
}

func (s *TemplateCommandsTestSuite) TestTransitionUnknownTemplate() {
	err := s.commands.PauseTemplate(context.Background(), commands.Actor{UserID: uuid.New()}, uuid.New())
	s.ErrorIs(err, errs.ErrTemplateNotFound)
}
