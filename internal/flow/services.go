package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/visadesk/visadesk/internal/models"
)

// Service flow questions and closing messages.
const (
	canadaAskEligibilityQ = "Do you want an eligibility check? (yes/no)"
	canadaIELTSQ          = "Send your IELTS score (or type No)"
	canadaMessageQ        = "Any message for our Canada expert?"
	canadaEligibilityDone = "Thanks! Our team will evaluate your profile."
	canadaMessageDone     = "Thanks! Our expert will contact you."

	studentCountryQ = "Which country do you want to study in?"
	studentCourseQ  = "Which course (Bachelor/Master/Diploma)?"
	studentScoreQ   = "Your IELTS/TOEFL score? (or type No)"
	studentDone     = "Thanks! Our counselor will contact you."

	workCountryQ    = "Which country?"
	workProfessionQ = "Your profession?"
	workDone        = "Thanks! We will check opportunities."

	touristCountryQ = "Which country do you want to visit?"
	touristDaysQ    = "How many days?"
	touristDone     = "Thanks! We will share the process."

	businessIdeaQ       = "Describe your business/startup idea:"
	businessInvestmentQ = "Estimated investment/team size?"
	businessDone        = "Thanks! Our business visa team will contact you."

	eligibilityAgeQ        = "What is your age?"
	eligibilityEducationQ  = "Your highest education?"
	eligibilityExperienceQ = "Work experience (yrs)?"
	eligibilityIELTSQ      = "IELTS score? (or No)"
	eligibilityCountryQ    = "Which country?"

	handoffMessageQ = "Any message for our expert?"
	handoffDone     = "Our expert has been notified and will contact you shortly."
)

// dispatchService advances the selected service flow by one turn. When the
// stage cursor is still unset the flow opens with its first question and text
// is not consumed as an answer.
func (r *Router) dispatchService(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) error {
	slog.Debug("Dispatching service flow", "chat_id", chatID, "flow", sess.Flow, "stage", sess.Service.Stage)

	switch sess.Flow {
	case models.FlowCanadaPR:
		r.runCanadaPR(ctx, chatID, sess, sessions, text)
	case models.FlowStudentVisa:
		r.runStudentVisa(ctx, chatID, sess, sessions, text)
	case models.FlowWorkPermit:
		r.runWorkPermit(ctx, chatID, sess, sessions, text)
	case models.FlowTouristVisa:
		r.runTouristVisa(ctx, chatID, sess, sessions, text)
	case models.FlowBusinessVisa:
		r.runBusinessVisa(ctx, chatID, sess, sessions, text)
	case models.FlowEligibility:
		r.runEligibility(ctx, chatID, sess, sessions, text)
	case models.FlowHandoff:
		r.runHandoff(ctx, chatID, sess, sessions, text)
	default:
		slog.Error("Unknown flow in service step, resetting", "chat_id", chatID, "flow", sess.Flow)
		sess.ClearFlow()
		r.save(sessions)
		r.send(ctx, chatID, MainMenu)
	}
	return nil
}

// ask moves the stage cursor, persists, and sends the stage's question.
func (r *Router) ask(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, stage models.StageType, question string) {
	sess.Service.Stage = stage
	r.save(sessions)
	r.send(ctx, chatID, question)
}

// completeFlow records the lead, resets the flow portion of the session, and
// sends the closing message. A sink failure is logged; the conversation still
// resets so the user is never stuck in a finished flow.
func (r *Router) completeFlow(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, thanks string) {
	flowName := sess.Flow.DisplayName()
	if err := r.sink.Record(ctx, chatID, flowName, sess.MergedData()); err != nil {
		slog.Error("Failed to record lead", "error", err, "chat_id", chatID, "flow", flowName)
	}
	sess.ClearFlow()
	r.save(sessions)
	r.send(ctx, chatID, thanks)
}

// isAffirmative and isNegative match loosely, anywhere in the reply, so that
// answers like "yes please" or "No thanks" land on the intended branch.
func isAffirmative(text string) bool {
	return strings.Contains(strings.ToLower(text), "yes")
}

func isNegative(text string) bool {
	return strings.Contains(strings.ToLower(text), "no")
}

// normalizeOptional maps a declined optional answer to the empty string.
func normalizeOptional(text string) string {
	if isNegative(text) {
		return ""
	}
	return strings.TrimSpace(text)
}

func (r *Router) runCanadaPR(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageAskEligibility, canadaAskEligibilityQ)
	case models.StageAskEligibility:
		if isAffirmative(text) {
			r.ask(ctx, chatID, sess, sessions, models.StageIELTS, canadaIELTSQ)
		} else {
			r.ask(ctx, chatID, sess, sessions, models.StageMessage, canadaMessageQ)
		}
	case models.StageIELTS:
		sess.Service.Set(models.DataKeyIELTS, normalizeOptional(text))
		r.completeFlow(ctx, chatID, sess, sessions, canadaEligibilityDone)
	case models.StageMessage:
		sess.Service.Set(models.DataKeyMessage, strings.TrimSpace(text))
		r.completeFlow(ctx, chatID, sess, sessions, canadaMessageDone)
	}
}

func (r *Router) runStudentVisa(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageCountry, studentCountryQ)
	case models.StageCountry:
		sess.Service.Set(models.DataKeyCountry, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageCourse, studentCourseQ)
	case models.StageCourse:
		sess.Service.Set(models.DataKeyCourse, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageScore, studentScoreQ)
	case models.StageScore:
		sess.Service.Set(models.DataKeyIELTS, normalizeOptional(text))
		r.completeFlow(ctx, chatID, sess, sessions, studentDone)
	}
}

func (r *Router) runWorkPermit(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageCountry, workCountryQ)
	case models.StageCountry:
		sess.Service.Set(models.DataKeyCountry, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageProfession, workProfessionQ)
	case models.StageProfession:
		sess.Service.Set(models.DataKeyProfession, strings.TrimSpace(text))
		r.completeFlow(ctx, chatID, sess, sessions, workDone)
	}
}

func (r *Router) runTouristVisa(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageCountry, touristCountryQ)
	case models.StageCountry:
		sess.Service.Set(models.DataKeyCountry, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageDays, touristDaysQ)
	case models.StageDays:
		sess.Service.Set(models.DataKeyDays, strings.TrimSpace(text))
		r.completeFlow(ctx, chatID, sess, sessions, touristDone)
	}
}

func (r *Router) runBusinessVisa(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageIdea, businessIdeaQ)
	case models.StageIdea:
		sess.Service.Set(models.DataKeyIdea, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageInvestment, businessInvestmentQ)
	case models.StageInvestment:
		sess.Service.Set(models.DataKeyInvestment, strings.TrimSpace(text))
		r.completeFlow(ctx, chatID, sess, sessions, businessDone)
	}
}

func (r *Router) runEligibility(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageAge, eligibilityAgeQ)
	case models.StageAge:
		sess.Service.Set(models.DataKeyAge, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageEducation, eligibilityEducationQ)
	case models.StageEducation:
		sess.Service.Set(models.DataKeyEducation, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageExperience, eligibilityExperienceQ)
	case models.StageExperience:
		sess.Service.Set(models.DataKeyExperience, strings.TrimSpace(text))
		r.ask(ctx, chatID, sess, sessions, models.StageIELTS, eligibilityIELTSQ)
	case models.StageIELTS:
		sess.Service.Set(models.DataKeyIELTS, normalizeOptional(text))
		r.ask(ctx, chatID, sess, sessions, models.StageCountry, eligibilityCountryQ)
	case models.StageCountry:
		sess.Service.Set(models.DataKeyCountry, strings.TrimSpace(text))
		result, score := EvaluateEligibility(sess.MergedData())
		slog.Info("Eligibility evaluated", "chat_id", chatID, "result", result, "score", score)
		r.completeFlow(ctx, chatID, sess, sessions, fmt.Sprintf("Eligibility Result: *%s* (Score: %d)", result, score))
	}
}

func (r *Router) runHandoff(ctx context.Context, chatID string, sess *models.Session, sessions map[string]*models.Session, text string) {
	switch sess.Service.Stage {
	case models.StageNone:
		r.ask(ctx, chatID, sess, sessions, models.StageMessage, handoffMessageQ)
	case models.StageMessage:
		sess.Service.Set(models.DataKeyMessage, strings.TrimSpace(text))
		r.completeFlow(ctx, chatID, sess, sessions, handoffDone)
	}
}
