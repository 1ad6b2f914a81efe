package assistant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/hospital-ai-platform/internal/doctors"
	"github.com/wolfman30/hospital-ai-platform/internal/intent"
	"github.com/wolfman30/hospital-ai-platform/internal/llm"
	"github.com/wolfman30/hospital-ai-platform/internal/medicines"
	"github.com/wolfman30/hospital-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/hospital-ai-platform/internal/patients"
	"github.com/wolfman30/hospital-ai-platform/internal/retrieval"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

var tracer = otel.Tracer("hospital.internal.assistant")

const summarySystemPrompt = `You are a hospital case summarizer.
Write a short clinical hand-off summary of the patient case you are given.
Mention the patient's name, age, reason for the visit and the assigned doctor if any.
Keep it under five sentences and do not invent details.`

const answerSystemPrompt = `You are a hospital information assistant.
Answer the question using ONLY the provided handbook excerpts.
If the excerpts do not contain the answer, say you could not find it in the handbook.
Keep the answer short and cite nothing outside the excerpts.`

// Dispatcher is what transport layers call to resolve a query.
type Dispatcher interface {
	Handle(ctx context.Context, query string) (*Result, error)
	Shutdown(ctx context.Context) error
}

// Service resolves free-text queries end to end: classify, extract, act.
// Handle never fails for domain reasons; every branch folds into a Result.
// The returned error is reserved for infrastructure faults the queue layer
// must see (none today, the signature matches Dispatcher).
type Service struct {
	classifier *intent.Classifier
	extractor  *intent.Extractor
	doctors    *doctors.Service
	assigner   *doctors.Assigner
	patients   patients.Repository
	medicines  medicines.Repository
	index      retrieval.VectorIndex
	client     llm.Client

	model      string
	maxTokens  int
	topK       int
	threshold  float64
	snippetLen int

	logger  *logging.Logger
	metrics *metrics.QueryMetrics
}

// Params bundles the service dependencies.
type Params struct {
	Classifier *intent.Classifier
	Extractor  *intent.Extractor
	Doctors    *doctors.Service
	Assigner   *doctors.Assigner
	Patients   patients.Repository
	Medicines  medicines.Repository
	Index      retrieval.VectorIndex
	Client     llm.Client

	Model      string
	MaxTokens  int
	TopK       int
	Threshold  float64
	SnippetLen int

	Logger  *logging.Logger
	Metrics *metrics.QueryMetrics
}

// NewService wires the dispatcher. Classifier, extractor, doctors service,
// assigner, patients, medicines and the LLM client are required; the index may
// be nil, in which case knowledge queries report an empty knowledge base.
func NewService(p Params) *Service {
	if p.Classifier == nil {
		panic("assistant: classifier required")
	}
	if p.Extractor == nil {
		panic("assistant: extractor required")
	}
	if p.Doctors == nil {
		panic("assistant: doctors service required")
	}
	if p.Assigner == nil {
		panic("assistant: assigner required")
	}
	if p.Patients == nil {
		panic("assistant: patients repository required")
	}
	if p.Medicines == nil {
		panic("assistant: medicines repository required")
	}
	if p.Client == nil {
		panic("assistant: llm client required")
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 1000
	}
	if p.TopK <= 0 {
		p.TopK = 10
	}
	if p.SnippetLen <= 0 {
		p.SnippetLen = retrieval.DefaultSnippetLength
	}
	return &Service{
		classifier: p.Classifier,
		extractor:  p.Extractor,
		doctors:    p.Doctors,
		assigner:   p.Assigner,
		patients:   p.Patients,
		medicines:  p.Medicines,
		index:      p.Index,
		client:     p.Client,
		model:      p.Model,
		maxTokens:  p.MaxTokens,
		topK:       p.TopK,
		threshold:  p.Threshold,
		snippetLen: p.SnippetLen,
		logger:     p.Logger,
		metrics:    p.Metrics,
	}
}

// Handle resolves one query to a Result.
func (s *Service) Handle(ctx context.Context, query string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "assistant.Handle")
	defer span.End()

	tag := s.classifier.Classify(ctx, query)
	span.SetAttributes(attribute.String("assistant.action", string(tag)))

	var res *Result
	switch tag {
	case intent.TagRegisterPatient:
		res = s.registerPatient(ctx, query)
	case intent.TagConfirmAppointment:
		res = s.confirmAppointment(ctx, query)
	case intent.TagMedicineAvailability:
		res = s.medicineAvailability(ctx, query)
	case intent.TagSummarizeCase:
		res = s.summarizeCase(ctx, query)
	default:
		res = s.answerFromKnowledgeBase(ctx, query)
	}

	status := "ok"
	if !res.OK {
		status = "failed"
	}
	s.metrics.ObserveQuery(res.Kind, status)
	s.logger.Info("query handled", "action", res.Kind, "ok", res.OK)
	return res, nil
}

// Shutdown satisfies Dispatcher; the bare service has nothing to drain.
func (s *Service) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Service) registerPatient(ctx context.Context, query string) *Result {
	kind := string(intent.TagRegisterPatient)

	// Reclaim expired leases first so capacity freed by no-shows is
	// visible to this registration.
	if released, err := s.doctors.ReleaseStale(ctx); err != nil {
		s.logger.Warn("stale lease sweep failed", "error", err)
	} else if released > 0 {
		s.logger.Info("released stale reservations", "count", released)
	}

	params := s.extractor.Extract(ctx, query, intent.TagRegisterPatient)
	name := params.String("name")
	age := params.Int("age")
	reason := params.String("reason")

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if age <= 0 {
		missing = append(missing, "age")
	}
	if reason == "" {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return &Result{
			Kind:    kind,
			OK:      false,
			Message: fmt.Sprintf("To register a patient I still need: %s.", strings.Join(missing, ", ")),
			Missing: missing,
		}
	}

	doc, reasoning, err := s.assigner.Assign(ctx, reason)
	if err != nil {
		if errors.Is(err, doctors.ErrNoDoctorAvailable) {
			return failure(kind, "All doctors are currently booked. Please try again in a little while.")
		}
		s.logger.Error("doctor assignment failed", "error", err)
		return failure(kind, "Could not assign a doctor right now. Please try again.")
	}

	patient, err := s.patients.Create(ctx, patients.Patient{
		Name:     name,
		Age:      age,
		Reason:   reason,
		DoctorID: &doc.ID,
	})
	if err != nil {
		s.logger.Error("patient registration failed", "error", err)
		return failure(kind, "Could not save the registration. Please try again.")
	}

	return &Result{
		Kind: kind,
		OK:   true,
		Message: fmt.Sprintf("%s is registered with %s (%s). The reservation holds for %d minutes; please confirm the appointment.",
			patient.Name, doc.Name, doc.Specialization, int(s.doctors.TTL().Minutes())),
		PatientID: patient.ID,
		Doctor:    doc,
		Reasoning: reasoning,
	}
}

func (s *Service) confirmAppointment(ctx context.Context, query string) *Result {
	kind := string(intent.TagConfirmAppointment)

	params := s.extractor.Extract(ctx, query, intent.TagConfirmAppointment)
	name := params.String("name")
	if name == "" {
		return &Result{
			Kind:    kind,
			OK:      false,
			Message: "Please tell me the name the registration was made under.",
			Missing: []string{"name"},
		}
	}

	patient, err := s.patients.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			return failure(kind, fmt.Sprintf("I could not find a registration for %s. Please register first.", name))
		}
		s.logger.Error("patient lookup failed", "error", err)
		return failure(kind, "Could not look up the registration. Please try again.")
	}
	if patient.DoctorID == nil {
		return failure(kind, fmt.Sprintf("%s is registered but has no doctor assigned yet. Please register again to get an assignment.", patient.Name))
	}

	doc, err := s.doctors.Confirm(ctx, *patient.DoctorID)
	if err != nil {
		if errors.Is(err, doctors.ErrDoctorNotFound) {
			return failure(kind, "The assigned doctor is no longer on the roster. Please register again.")
		}
		s.logger.Error("appointment confirmation failed", "error", err)
		return failure(kind, "Could not confirm the appointment. Please try again.")
	}

	return &Result{
		Kind:      kind,
		OK:        true,
		Message:   fmt.Sprintf("Appointment confirmed: %s with %s (%s).", patient.Name, doc.Name, doc.Specialization),
		PatientID: patient.ID,
		Doctor:    doc,
	}
}

func (s *Service) medicineAvailability(ctx context.Context, query string) *Result {
	kind := string(intent.TagMedicineAvailability)

	params := s.extractor.Extract(ctx, query, intent.TagMedicineAvailability)
	name := params.String("medicine_name")
	if name == "" {
		return &Result{
			Kind:    kind,
			OK:      false,
			Message: "Which medicine should I check?",
			Missing: []string{"medicine_name"},
		}
	}

	med, err := s.medicines.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, medicines.ErrMedicineNotFound) {
			return failure(kind, fmt.Sprintf("%s is not in our inventory.", name))
		}
		s.logger.Error("medicine lookup failed", "error", err)
		return failure(kind, "Could not check the inventory. Please try again.")
	}
	if !med.InStock() {
		return failure(kind, fmt.Sprintf("%s is currently out of stock.", med.Name))
	}

	return &Result{
		Kind:    kind,
		OK:      true,
		Message: fmt.Sprintf("%s is available: %d units at %.2f each.", med.Name, med.Quantity, med.Price),
	}
}

var firstIntRe = regexp.MustCompile(`\d+`)

func (s *Service) summarizeCase(ctx context.Context, query string) *Result {
	kind := string(intent.TagSummarizeCase)

	params := s.extractor.Extract(ctx, query, intent.TagSummarizeCase)
	id := int64(params.Int("patient_id"))
	if id <= 0 {
		// The extractor missed; fall back to the first number in the
		// raw query.
		if m := firstIntRe.FindString(query); m != "" {
			if parsed, err := strconv.ParseInt(m, 10, 64); err == nil {
				id = parsed
			}
		}
	}
	if id <= 0 {
		return &Result{
			Kind:    kind,
			OK:      false,
			Message: "Please tell me the patient id to summarize.",
			Missing: []string{"patient_id"},
		}
	}

	c, err := s.patients.FullCase(ctx, id)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			return failure(kind, fmt.Sprintf("No patient with id %d is on record.", id))
		}
		s.logger.Error("case lookup failed", "error", err)
		return failure(kind, "Could not load the patient case. Please try again.")
	}

	doctorLine := "no doctor assigned yet"
	if c.DoctorName != "" {
		doctorLine = fmt.Sprintf("assigned to %s (%s)", c.DoctorName, c.DoctorSpecialization)
	}
	caseText := fmt.Sprintf("Patient: %s\nAge: %d\nReason for visit: %s\nDoctor: %s\nRegistered: %s",
		c.Patient.Name, c.Patient.Age, c.Patient.Reason, doctorLine,
		c.Patient.RegisteredAt.Format(time.RFC3339))

	summary, err := s.complete(ctx, "summarize", summarySystemPrompt,
		fmt.Sprintf("Summarize this case:\n\n%s", caseText))
	if err != nil {
		s.logger.Error("case summary generation failed", "error", err, "patient_id", id)
		return failure(kind, "The summarizer is unavailable right now. Please try again.")
	}

	return &Result{
		Kind:      kind,
		OK:        true,
		PatientID: c.Patient.ID,
		Summary:   summary,
	}
}

func (s *Service) answerFromKnowledgeBase(ctx context.Context, query string) *Result {
	kind := string(intent.TagKnowledgeBase)

	if s.index == nil {
		return failure(kind, "The knowledge base is not loaded.")
	}

	hits, err := s.index.Search(ctx, query, s.topK)
	if err != nil {
		s.logger.Error("knowledge base search failed", "error", err)
		return failure(kind, "Could not search the knowledge base. Please try again.")
	}

	groups := retrieval.Aggregate(retrieval.Score(hits), s.threshold, s.snippetLen)
	if len(groups) == 0 {
		return failure(kind, "I could not find anything relevant in the handbook.")
	}

	var excerpts strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&excerpts, "[page %d]\n%s\n\n", g.Page, g.Content)
	}

	answer, err := s.complete(ctx, "answer", answerSystemPrompt,
		fmt.Sprintf("Handbook excerpts:\n\n%sQuestion: %s", excerpts.String(), query))
	if err != nil {
		s.logger.Error("grounded answer generation failed", "error", err)
		return failure(kind, "The assistant is unavailable right now. Please try again.")
	}

	return &Result{
		Kind:       kind,
		OK:         true,
		Answer:     answer,
		References: groups,
	}
}

func (s *Service) complete(ctx context.Context, purpose, system, user string) (string, error) {
	start := time.Now()
	resp, err := s.client.Complete(ctx, llm.Request{
		Model:     s.model,
		System:    []string{system},
		Messages:  []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: user}},
		MaxTokens: int32(s.maxTokens),
	})
	s.metrics.ObserveLLMLatency(purpose, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
