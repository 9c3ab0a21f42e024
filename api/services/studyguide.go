package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/local/studyguide/api/guide"
	"github.com/local/studyguide/api/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Stage names the steps of a generation run, as logged.
type Stage string

const (
	StageBuildingContext Stage = "BUILDING_CONTEXT"
	StagePrompting       Stage = "PROMPTING"
	StageAwaitingLLM     Stage = "AWAITING_LLM"
	StageParsing         Stage = "PARSING"
	StageValidating      Stage = "VALIDATING"
	StageSanitizingRetry Stage = "SANITIZING_RETRY"
	StageFallback        Stage = "FALLBACK"
	StageEnriching       Stage = "ENRICHING"
	StagePersisting      Stage = "PERSISTING"
	StageDone            Stage = "DONE"
	StageError           Stage = "ERROR"
)

const maxSanitizePasses = 3

// GuideView is a stored guide with its content decoded.
type GuideView struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Content   *guide.Document `json:"content"`
	StudentID uint            `json:"studentId"`
	CreatedAt time.Time       `json:"createdAt"`
}

type StudyGuideService struct {
	sessions     SessionProvider
	students     StudentRepository
	guides       GuideRepository
	contexts     *ContextBuilder
	llm          AIProvider
	enricher     *Enricher
	keywordLimit int
}

type StudyGuideDeps struct {
	Sessions     SessionProvider
	Students     StudentRepository
	Academics    AcademicRepository
	Guides       GuideRepository
	LLM          AIProvider
	Videos       VideoSearcher
	Materials    MaterialReader
	KeywordLimit int
}

func NewStudyGuideService(d StudyGuideDeps) *StudyGuideService {
	return &StudyGuideService{
		sessions:     d.Sessions,
		students:     d.Students,
		guides:       d.Guides,
		contexts:     NewContextBuilder(d.Academics, d.Materials),
		llm:          d.LLM,
		enricher:     NewEnricher(d.Videos),
		keywordLimit: d.KeywordLimit,
	}
}

// Generate runs one generation request end to end and returns the persisted
// guide. Parse and validation problems never fail the request; the reply is
// converted with the fallback converter instead.
func (s *StudyGuideService) Generate(ctx context.Context, topic string) (view *GuideView, err error) {
	defer recoverInternal("generate", &err)

	student, err := s.currentStudent(ctx)
	if err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, invalidInput("El tema de la guía es obligatorio")
	}

	logger := requestLogger(ctx).With().Uint("student_id", student.ID).Logger()
	fail := func(stage Stage, e *Error) (*GuideView, error) {
		logger.Error().Err(e.Err).Str("stage", string(stage)).Str("kind", string(e.Kind)).Msg("Study guide generation failed")
		return nil, e
	}

	enter(logger, StageBuildingContext)
	sc, err := s.contexts.Build(ctx, student)
	if err != nil {
		return fail(StageBuildingContext, newError(KindUpstreamData, err))
	}

	enter(logger, StagePrompting)
	prompt := BuildPrompt(sc, topic)

	enter(logger, StageAwaitingLLM)
	reply, err := s.llm.Generate(ctx, prompt.Text, prompt.SystemInstruction)
	if err != nil {
		return fail(StageAwaitingLLM, generationFailure(err))
	}

	doc := s.structure(logger, reply, topic, student.Level)
	doc.ApplyDefaults(topic, student.Level)
	doc.FillKeywords(s.keywordLimit)

	enter(logger, StageEnriching)
	if added := s.enricher.Enrich(ctx, doc, topic); added > 0 {
		logger.Debug().Int("videos", added).Msg("Added video resources")
	}

	enter(logger, StagePersisting)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fail(StagePersisting, newError(KindPersistence, fmt.Errorf("failed to serialize guide: %w", err)))
	}
	record := &models.StudyGuide{
		Title:     doc.Title,
		Content:   string(raw),
		StudentID: student.ID,
	}
	if err := s.guides.Create(ctx, record); err != nil {
		return fail(StagePersisting, newError(KindPersistence, err))
	}

	logger.Info().Uint("guide_id", record.ID).Str("stage", string(StageDone)).Msg("Study guide generated")
	return viewOf(record, doc), nil
}

// structure turns the model reply into a valid document, falling back to the
// text converter whenever parsing or validation fails.
func (s *StudyGuideService) structure(logger zerolog.Logger, reply, topic, level string) *guide.Document {
	fallback := func(reason string) *guide.Document {
		logger.Warn().Str("stage", string(StageFallback)).Str("reason", reason).Msg("Using fallback guide structure")
		return guide.FallbackDocument(reply, topic, level)
	}

	enter(logger, StageParsing)
	obj, err := guide.ParseReply(reply)
	if err != nil {
		return fallback(err.Error())
	}

	enter(logger, StageValidating)
	var clean any = obj
	for pass := 1; pass <= maxSanitizePasses; pass++ {
		if pass > 1 {
			enter(logger, StageSanitizingRetry)
		}
		clean = guide.Sanitize(clean)
		if !guide.ContainsDisallowedPatterns(clean) {
			break
		}
	}
	if guide.ContainsDisallowedPatterns(clean) {
		return fallback("disallowed patterns after sanitizing")
	}
	if violations := guide.Violations(clean); len(violations) > 0 {
		return fallback(violations[0].String())
	}
	doc, err := guide.Decode(clean)
	if err != nil {
		return fallback(err.Error())
	}
	doc.Sanitize()
	if !doc.Prune() {
		return fallback("no sections left after sanitizing")
	}
	return doc
}

// requestLogger returns the logger the request middleware stored in ctx,
// falling back to the global one.
func requestLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

func enter(logger zerolog.Logger, stage Stage) {
	logger.Debug().Str("stage", string(stage)).Msg("Study guide stage")
}

func generationFailure(err error) *Error {
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		switch gerr.Kind {
		case GenerationRateLimited:
			return newError(KindRateLimited, err)
		case GenerationOverloaded:
			return newError(KindOverloaded, err)
		}
	}
	return newError(KindGeneration, err)
}

// recoverInternal converts a panic in a service call into KindInternal.
func recoverInternal(op string, err *error) {
	if r := recover(); r != nil {
		log.Error().Str("op", op).Interface("panic", r).Str("stage", string(StageError)).Msg("Recovered from panic")
		*err = newError(KindInternal, fmt.Errorf("panic: %v", r))
	}
}

// currentStudent resolves the session to a student, by user id first and then
// by e-mail.
func (s *StudyGuideService) currentStudent(ctx context.Context) (*models.Student, error) {
	user := s.sessions.CurrentUser(ctx)
	if user == nil {
		return nil, newError(KindUnauthorized, nil)
	}

	student, err := s.students.FindStudentByUserID(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to look up student")
		return nil, newError(KindUpstreamData, err)
	}
	if student == nil && user.Email != "" {
		u, err := s.students.FindUserByEmail(ctx, user.Email)
		if err != nil {
			log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to look up user by email")
			return nil, newError(KindUpstreamData, err)
		}
		if u != nil {
			student = u.Student
		}
	}
	if student == nil {
		log.Warn().Uint("user_id", user.ID).Msg("No student profile for user")
		return nil, newError(KindStudentNotFound, nil)
	}
	return student, nil
}

func viewOf(record *models.StudyGuide, doc *guide.Document) *GuideView {
	return &GuideView{
		ID:        record.ID,
		Title:     record.Title,
		Content:   doc,
		StudentID: record.StudentID,
		CreatedAt: record.CreatedAt,
	}
}

func (s *StudyGuideService) load(ctx context.Context, student *models.Student, id uint) (*models.StudyGuide, error) {
	record, err := s.guides.FindByID(ctx, id, student.ID)
	if err != nil {
		log.Error().Err(err).Uint("guide_id", id).Msg("Failed to load study guide")
		return nil, newError(KindUpstreamData, err)
	}
	if record == nil {
		return nil, newError(KindGuideNotFound, nil)
	}
	return record, nil
}

// List returns the current student's guides, newest first.
func (s *StudyGuideService) List(ctx context.Context) (views []GuideView, err error) {
	defer recoverInternal("list", &err)

	student, err := s.currentStudent(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.guides.ListByStudent(ctx, student.ID)
	if err != nil {
		log.Error().Err(err).Uint("student_id", student.ID).Msg("Failed to list study guides")
		return nil, newError(KindUpstreamData, err)
	}
	views = make([]GuideView, 0, len(records))
	for i := range records {
		doc := guide.Normalize(records[i].Content, records[i].Title, student.Level)
		views = append(views, *viewOf(&records[i], doc))
	}
	return views, nil
}

func (s *StudyGuideService) Get(ctx context.Context, id uint) (view *GuideView, err error) {
	defer recoverInternal("get", &err)

	student, err := s.currentStudent(ctx)
	if err != nil {
		return nil, err
	}
	record, err := s.load(ctx, student, id)
	if err != nil {
		return nil, err
	}
	return viewOf(record, guide.Normalize(record.Content, record.Title, student.Level)), nil
}

// Rename updates the stored title and the document title together. Legacy
// plain-text content is upgraded on the way.
func (s *StudyGuideService) Rename(ctx context.Context, id uint, title string) (view *GuideView, err error) {
	defer recoverInternal("rename", &err)

	student, err := s.currentStudent(ctx)
	if err != nil {
		return nil, err
	}
	title = guide.SanitizeString(title)
	if title == "" {
		return nil, invalidInput("El título es obligatorio")
	}
	record, err := s.load(ctx, student, id)
	if err != nil {
		return nil, err
	}

	doc := guide.Normalize(record.Content, record.Title, student.Level)
	doc.Title = title
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, newError(KindPersistence, err)
	}
	record.Title = title
	record.Content = string(raw)
	if err := s.guides.Update(ctx, record); err != nil {
		log.Error().Err(err).Uint("guide_id", id).Msg("Failed to rename study guide")
		return nil, newError(KindPersistence, err)
	}
	return viewOf(record, doc), nil
}

func (s *StudyGuideService) Delete(ctx context.Context, id uint) (err error) {
	defer recoverInternal("delete", &err)

	student, err := s.currentStudent(ctx)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, student, id); err != nil {
		return err
	}
	if err := s.guides.Delete(ctx, id, student.ID); err != nil {
		log.Error().Err(err).Uint("guide_id", id).Msg("Failed to delete study guide")
		return newError(KindPersistence, err)
	}
	log.Info().Uint("guide_id", id).Uint("student_id", student.ID).Msg("Study guide deleted")
	return nil
}
