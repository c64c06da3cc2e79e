// Package job defines the data model that flows through the enrichment
// pipeline: documents in, annotations/individuals/properties out.
package job

import "time"

// Span is a byte-offset range into a document's canonical text, carrying a
// copy of the covered text for self-checking invariants.
type Span struct {
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Text         string `json:"text"`
	SentenceText string `json:"sentence_text,omitempty"`
}

// Valid reports whether the span's offsets are well-formed against full.
func (s Span) Valid(full string) bool {
	if s.Start < 0 || s.Start >= s.End || s.End > len(full) {
		return false
	}
	return full[s.Start:s.End] == s.Text
}

// Source identifies which stage or collaborator produced a ConceptMatch.
type Source string

const (
	SourceEntityRuler   Source = "entity_ruler"
	SourceLLM           Source = "llm"
	SourceReconciled    Source = "reconciled"
	SourceConflictResolved Source = "conflict_resolved"
	SourceMatched       Source = "matched"
	SourceSemanticRuler Source = "semantic_ruler"
)

// MatchType distinguishes how a label matched a concept.
type MatchType string

const (
	MatchPreferred   MatchType = "preferred"
	MatchAlternative MatchType = "alternative"
	MatchLemma       MatchType = "lemma"
)

// State is the lifecycle stage of an annotation or concept match.
type State string

const (
	StatePreliminary State = "preliminary"
	StateConfirmed   State = "confirmed"
	StateRejected    State = "rejected"
	StateBackup      State = "backup"
)

// ConceptMatch is a candidate ontology linkage proposed by a stage.
type ConceptMatch struct {
	ConceptText string   `json:"concept_text"`
	FolioIRI    string   `json:"folio_iri,omitempty"`
	FolioLabel  string   `json:"folio_label,omitempty"`
	Definition  string   `json:"definition,omitempty"`
	Branches    []string `json:"branches,omitempty"`
	BranchColor string   `json:"branch_color,omitempty"`
	Confidence  float64  `json:"confidence"`
	Source      Source   `json:"source"`
	MatchType   MatchType `json:"match_type,omitempty"`
	State       State    `json:"state"`

	Examples    []string          `json:"examples,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	SeeAlso     []string          `json:"see_also,omitempty"`
	AltLabels   []string          `json:"alt_labels,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
	IRIHash     string            `json:"iri_hash,omitempty"`
	ChildCount  int               `json:"child_count,omitempty"`
	HierarchyPath []string        `json:"hierarchy_path,omitempty"`
}

// StageEvent is one entry in an annotation's append-only lineage.
type StageEvent struct {
	Stage      string    `json:"stage"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// Annotation is a stable-identified span linked to one or more concepts.
// Once its ID is assigned and emitted, later stages must update it in place.
type Annotation struct {
	ID          string         `json:"id"`
	Span        Span           `json:"span"`
	Concepts    []ConceptMatch `json:"concepts"`
	State       State          `json:"state"`
	Lineage     []StageEvent   `json:"lineage"`
	Feedback    string         `json:"feedback,omitempty"`
	DismissedAt *time.Time     `json:"dismissed_at,omitempty"`
}

// Primary returns the primary (index 0) concept, or nil if none.
func (a *Annotation) Primary() *ConceptMatch {
	if len(a.Concepts) == 0 {
		return nil
	}
	return &a.Concepts[0]
}

// AppendLineage appends a lineage event; lineage length never decreases.
func (a *Annotation) AppendLineage(ev StageEvent) {
	a.Lineage = append(a.Lineage, ev)
}

// IndividualType distinguishes citation-like individuals from NER-found ones.
type IndividualType string

const (
	IndividualLegalCitation IndividualType = "legal_citation"
	IndividualNamedEntity   IndividualType = "named_entity"
)

// IndividualSource identifies which extractor produced an Individual.
type IndividualSource string

const (
	IndividualSourceEyecite  IndividualSource = "eyecite"
	IndividualSourceCiteURL  IndividualSource = "citeurl"
	IndividualSourceRegex    IndividualSource = "regex"
	IndividualSourceSpacyNER IndividualSource = "spacy_ner"
	IndividualSourceLLM      IndividualSource = "llm"
	IndividualSourceHybrid   IndividualSource = "hybrid"
)

// SourcePriority returns the dedup priority for an individual source;
// higher wins. Grounded on spec.md §4.9: eyecite(100) > citeurl(95) >
// regex(80) > spacy_ner(70) > llm(50).
func SourcePriority(s IndividualSource) int {
	switch s {
	case IndividualSourceEyecite:
		return 100
	case IndividualSourceCiteURL:
		return 95
	case IndividualSourceRegex:
		return 80
	case IndividualSourceSpacyNER:
		return 70
	case IndividualSourceLLM:
		return 50
	default:
		return 0
	}
}

// ClassLink ties an Individual to an Annotation or a bare label.
type ClassLink struct {
	AnnotationID string  `json:"annotation_id,omitempty"`
	Label        string  `json:"label,omitempty"`
	Relationship string  `json:"relationship"`
	Confidence   float64 `json:"confidence"`
}

// Individual is a named instance of a class found in the document.
type Individual struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	MentionText    string           `json:"mention_text"`
	IndividualType IndividualType   `json:"individual_type"`
	Span           Span             `json:"span"`
	ClassLinks     []ClassLink      `json:"class_links"`
	Confidence     float64          `json:"confidence"`
	Source         IndividualSource `json:"source"`
	NormalizedForm string           `json:"normalized_form,omitempty"`
	URL            string           `json:"url,omitempty"`
	Lineage        []StageEvent     `json:"lineage"`
}

// PropertySource identifies which stage produced a PropertyAnnotation.
type PropertySource string

const (
	PropertySourceAhoCorasick PropertySource = "aho_corasick"
	PropertySourceLLM         PropertySource = "llm"
)

// PropertyAnnotation is a verb/relation connecting entities.
type PropertyAnnotation struct {
	ID          string         `json:"id"`
	PropertyText string        `json:"property_text"`
	IRI         string         `json:"iri,omitempty"`
	Label       string         `json:"label,omitempty"`
	Definition  string         `json:"definition,omitempty"`
	Examples    []string       `json:"examples,omitempty"`
	AltLabels   []string       `json:"alt_labels,omitempty"`
	DomainIRIs  []string       `json:"domain_iris,omitempty"`
	RangeIRIs   []string       `json:"range_iris,omitempty"`
	InverseOf   string         `json:"inverse_of,omitempty"`
	Span        Span           `json:"span"`
	Confidence  float64        `json:"confidence"`
	Source      PropertySource `json:"source"`
	MatchType   MatchType      `json:"match_type,omitempty"`
	Lineage     []StageEvent   `json:"lineage"`
}

// TextElement is a structural element (heading, paragraph, table cell, ...)
// optionally surfaced by an ingester.
type TextElement struct {
	Text        string `json:"text"`
	ElementType string `json:"element_type"`
	SectionPath string `json:"section_path,omitempty"`
	Page        *int   `json:"page,omitempty"`
	Level       *int   `json:"level,omitempty"`
}

// Sentence is one sentence of normalized text, offset-tracked.
type Sentence struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Chunk is a bounded, offset-tracked window of normalized text.
type Chunk struct {
	Text      string     `json:"text"`
	Start     int        `json:"start"`
	End       int        `json:"end"`
	Index     int        `json:"index"`
	Sentences []Sentence `json:"sentences"`
}

// CanonicalText is the normalized document body plus its chunking.
type CanonicalText struct {
	FullText string        `json:"full_text"`
	Chunks   []Chunk       `json:"chunks"`
	Elements []TextElement `json:"elements,omitempty"`
}

// ActivityEntry is one user-visible progress line.
type ActivityEntry struct {
	Timestamp time.Time `json:"ts"`
	Stage     string    `json:"stage"`
	Message   string    `json:"msg"`
}

// ExtractedFields holds the structured fields the metadata stage extracts.
type ExtractedFields struct {
	Court         string   `json:"court,omitempty"`
	Judge         string   `json:"judge,omitempty"`
	CaseNumber    string   `json:"case_number,omitempty"`
	Parties       []string `json:"parties,omitempty"`
	DateFiled     string   `json:"date_filed,omitempty"`
	Jurisdiction  string   `json:"jurisdiction,omitempty"`
	GoverningLaw  string   `json:"governing_law,omitempty"`
	ClaimTypes    []string `json:"claim_types,omitempty"`
	Author        string   `json:"author,omitempty"`
	Recipient     string   `json:"recipient,omitempty"`
	Addresses     []string `json:"addresses,omitempty"`
}

// Triple is a subject-verb-object extraction from the dependency stage.
type Triple struct {
	Subject      Span   `json:"subject"`
	Verb         Span   `json:"verb"`
	Object       Span   `json:"object"`
	IndividualID string `json:"individual_id,omitempty"`
	PropertyID   string `json:"property_id,omitempty"`
}

// Metadata is the typed inter-stage scratchpad. This replaces spec.md's
// free-form dict (see Design Notes: "from dynamic typing to tagged-union
// variants") with named, typed fields. Scratch holds private working state
// (the equivalent of `_`-prefixed keys) that is never exported.
type Metadata struct {
	RulerConcepts           map[int][]ConceptMatch `json:"ruler_concepts,omitempty"`
	LLMConcepts             map[int][]ConceptMatch `json:"llm_concepts,omitempty"`
	ReconciledConcepts      []ConceptMatch         `json:"reconciled_concepts,omitempty"`
	ResolvedConcepts        []ConceptMatch         `json:"resolved_concepts,omitempty"`
	SPOTriples              []Triple               `json:"spo_triples,omitempty"`
	AreasOfLaw              []string               `json:"areas_of_law,omitempty"`
	SelfIdentifiedType      string                 `json:"self_identified_type,omitempty"`
	DocumentType            string                 `json:"document_type,omitempty"`
	DocumentTypeConfidence  float64                `json:"document_type_confidence,omitempty"`
	ExtractedFields         ExtractedFields        `json:"extracted_fields,omitempty"`
	ActivityLog             []ActivityEntry        `json:"activity_log,omitempty"`
	PageCount               int                    `json:"page_count,omitempty"`
	SourceFormat            string                 `json:"source_format,omitempty"`

	Scratch *Scratch `json:"-"`
}

// Scratch holds transient, never-exported working state analogous to
// spec.md's `_`-prefixed metadata keys (e.g. `_raw_text`).
type Scratch struct {
	RawText  string
	Elements []TextElement
}

// Log appends an activity entry with the current time.
func (m *Metadata) Log(stage, msg string) {
	m.ActivityLog = append(m.ActivityLog, ActivityEntry{Timestamp: time.Now(), Stage: stage, Message: msg})
}

// Result is the accumulated pipeline output carried by a Job.
type Result struct {
	CanonicalText CanonicalText        `json:"canonical_text"`
	Annotations   []Annotation         `json:"annotations"`
	Individuals   []Individual         `json:"individuals"`
	Properties    []PropertyAnnotation `json:"properties"`
	Metadata      Metadata             `json:"metadata"`
}

// Status is a job's monotonically advancing lifecycle state.
type Status string

const (
	StatusPending              Status = "pending"
	StatusIngesting            Status = "ingesting"
	StatusNormalizing          Status = "normalizing"
	StatusEnriching            Status = "enriching"
	StatusIdentifying          Status = "identifying"
	StatusResolving            Status = "resolving"
	StatusMatching             Status = "matching"
	StatusJudging              Status = "judging"
	StatusExtractingIndividuals Status = "extracting_individuals"
	StatusExtractingProperties Status = "extracting_properties"
	StatusExporting            Status = "exporting"
	StatusCompleted            Status = "completed"
	StatusFailed               Status = "failed"
)

// Format identifies a document's source encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatWord     Format = "word"
	FormatRTF      Format = "rtf"
	FormatEmail    Format = "email"
	FormatTable    Format = "table" // supplemental: .xlsx exhibits attached to a filing
)

// Input is the document handed to the pipeline.
type Input struct {
	Content  string `json:"content"`
	Format   Format `json:"format"`
	Filename string `json:"filename,omitempty"`
}

// Job is the immutable-per-stage record flowing through the pipeline. Each
// stage reads it, mutates accumulated result fields, and returns it; the
// orchestrator persists the job after every stage.
type Job struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Input        Input     `json:"input"`
	Result       Result    `json:"result"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// New creates a pending job for the given input.
func New(id string, input Input) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Input:     input,
		Result: Result{
			Metadata: Metadata{Scratch: &Scratch{}},
		},
	}
}

// Fail transitions the job to failed, recording the error message.
func (j *Job) Fail(err error) {
	j.Status = StatusFailed
	j.ErrorMessage = err.Error()
	j.UpdatedAt = time.Now()
}
