// Package service ties the pipeline to report storage and answers questions
// about stored reports.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/pipeline"
	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/repository"
	"github.com/sirupsen/logrus"
)

// NoAnswer is returned for general questions when the report has no summary.
const NoAnswer = "No answer available."

// Runner produces a report for a query. *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, q models.Query, observe pipeline.Observer) models.Report
}

type Service struct {
	runner  Runner
	reports repository.ReportRepository
	log     logrus.FieldLogger
}

func New(runner Runner, reports repository.ReportRepository, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{runner: runner, reports: reports, log: log}
}

type AnalyzeResponse struct {
	ReportID string        `json:"report_id"`
	Report   models.Report `json:"report"`
}

// Analyze runs the pipeline and stores the report under a fresh id.
func (s *Service) Analyze(ctx context.Context, q models.Query) (AnalyzeResponse, error) {
	id := uuid.NewString()
	log := s.log.WithField("report_id", id)
	report := s.runner.Run(ctx, q, func(state pipeline.State, percent int) {
		log.WithFields(logrus.Fields{"stage": state, "progress": percent}).Debug("pipeline progress")
	})
	if err := s.reports.SaveReport(ctx, id, report); err != nil {
		return AnalyzeResponse{}, fmt.Errorf("save report %s: %w", id, err)
	}
	log.Info("report stored")
	return AnalyzeResponse{ReportID: id, Report: report}, nil
}

type ChatRequest struct {
	ReportID string `json:"report_id" validate:"required"`
	Question string `json:"question" validate:"required"`
}

type ChatResponse struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// Chat answers a question about a stored report by keyword: questions about
// risks get the risks, about opportunities get the opportunities, anything
// else gets the summary. Citations are always the report's sources. Unknown
// or expired ids return models.ErrReportNotFound.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	report, err := s.reports.GetReport(ctx, req.ReportID)
	if err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			return ChatResponse{}, err
		}
		return ChatResponse{}, fmt.Errorf("load report %s: %w", req.ReportID, err)
	}
	citations := report.Sources
	if citations == nil {
		citations = []string{}
	}
	return ChatResponse{Answer: Answer(report, req.Question), Citations: citations}, nil
}

// Answer picks the section of report that matches question.
func Answer(report models.Report, question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "risk"):
		return strings.Join(report.Risks, ", ")
	case strings.Contains(q, "opportunit"):
		return strings.Join(report.Opportunities, ", ")
	case report.Summary == "":
		return NoAnswer
	default:
		return report.Summary
	}
}
