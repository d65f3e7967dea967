package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/middleware"
)

// UploadField is the multipart field carrying the video.
const UploadField = "videoFile"

var videoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".mkv": true,
	".webm": true, ".avi": true, ".mpeg": true, ".mpg": true,
}

type uploadResponse struct {
	Message string `json:"message"`
	VideoID string `json:"videoId"`
}

type statusResponse struct {
	Status       domain.JobStatus `json:"status"`
	ErrorMessage *string          `json:"errorMessage,omitempty"`
}

type pendingResponse struct {
	Message string           `json:"message"`
	Status  domain.JobStatus `json:"status"`
}

type videoView struct {
	ID               string           `json:"_id"`
	OriginalFilename string           `json:"originalFilename"`
	Status           domain.JobStatus `json:"status"`
	UploadDate       time.Time        `json:"uploadDate"`
}

type transcriptionView struct {
	ID            string           `json:"_id"`
	VideoID       string           `json:"videoId"`
	FullText      string           `json:"fullText"`
	Segments      []domain.Segment `json:"segments"`
	GeneratedDate time.Time        `json:"generatedDate"`
}

type mcqView struct {
	ID               string    `json:"_id"`
	VideoID          string    `json:"videoId"`
	SegmentStartTime float64   `json:"segmentStartTime"`
	SegmentEndTime   float64   `json:"segmentEndTime"`
	Question         string    `json:"question"`
	Options          []string  `json:"options"`
	CorrectAnswer    string    `json:"correctAnswer"`
	GeneratedDate    time.Time `json:"generatedDate"`
}

type resultsResponse struct {
	Video         videoView          `json:"video"`
	Transcription *transcriptionView `json:"transcription"`
	MCQs          []mcqView          `json:"mcqs"`
}

// Upload stores the multipart video, records an uploaded job and starts
// processing without waiting for it.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		a.error(w, http.StatusBadRequest, "No file uploaded or file type incorrect.", nil)
		return
	}
	part, err := nextFilePart(mr, UploadField)
	if err != nil {
		a.uploadReadError(w, err)
		return
	}
	defer part.Close()

	original := filepath.Base(strings.ReplaceAll(part.FileName(), "\\", "/"))
	ext := strings.ToLower(filepath.Ext(original))
	if !isVideo(part.Header.Get("Content-Type"), ext) {
		a.error(w, http.StatusBadRequest, "No file uploaded or file type incorrect.", nil)
		return
	}

	jobID := a.newID()
	key := jobID + ext
	stored, err := a.Store.Save(r.Context(), key, part)
	if err != nil {
		a.uploadReadError(w, err)
		return
	}

	job := &domain.Job{
		ID:               jobID,
		OriginalFilename: original,
		StoredFilename:   stored.Key,
		MediaPath:        stored.Path,
		Status:           domain.JobStatusUploaded,
		UploaderCountry:  middleware.CountryFromContext(r.Context()),
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("save job record failed")
		if rmErr := a.Store.Remove(stored.Key); rmErr != nil {
			a.Logger.Error().Err(rmErr).Str("key", stored.Key).Msg("remove orphaned upload failed")
		}
		a.error(w, http.StatusInternalServerError, "Error saving video record.", err)
		return
	}

	a.Logger.Info().
		Str("job_id", jobID).
		Str("file", original).
		Int64("bytes", stored.Size).
		Str("country", job.UploaderCountry).
		Msg("video uploaded")
	a.json(w, http.StatusCreated, uploadResponse{
		Message: "Video uploaded successfully. Processing started.",
		VideoID: jobID,
	})
	a.Launcher.Launch(jobID)
}

func (a *App) uploadReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.", nil)
	case errors.Is(err, io.EOF), errors.Is(err, errMissingFile):
		a.error(w, http.StatusBadRequest, "No file uploaded or file type incorrect.", nil)
	default:
		a.Logger.Error().Err(err).Msg("read upload failed")
		a.error(w, http.StatusInternalServerError, "Error saving uploaded file.", err)
	}
}

var errMissingFile = errors.New("upload field missing")

// nextFilePart skips parts until the named file field.
func nextFilePart(mr *multipart.Reader, field string) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errMissingFile
			}
			return nil, err
		}
		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func isVideo(contentType, ext string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if strings.HasPrefix(mediaType, "video/") {
			return true
		}
		if mediaType != "application/octet-stream" {
			return false
		}
	}
	return videoExtensions[ext]
}

// Status reports the job's current status and error message.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	resp := statusResponse{Status: job.Status}
	if job.ErrorMessage != "" {
		resp.ErrorMessage = &job.ErrorMessage
	}
	a.json(w, http.StatusOK, resp)
}

// Results returns 202 until the job is completed, then the job with its
// transcript and questions in order.
func (a *App) Results(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.json(w, http.StatusAccepted, pendingResponse{
			Message: "Video processing not yet complete.",
			Status:  job.Status,
		})
		return
	}

	resp := resultsResponse{
		Video: videoView{
			ID:               job.ID,
			OriginalFilename: job.OriginalFilename,
			Status:           job.Status,
			UploadDate:       job.CreatedAt,
		},
		MCQs: []mcqView{},
	}

	transcript, err := a.Transcripts.GetByJobID(r.Context(), job.ID)
	switch {
	case err == nil:
		segments := transcript.Segments
		if segments == nil {
			segments = []domain.Segment{}
		}
		resp.Transcription = &transcriptionView{
			ID:            transcript.ID,
			VideoID:       transcript.JobID,
			FullText:      transcript.FullText,
			Segments:      segments,
			GeneratedDate: transcript.CreatedAt,
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		a.error(w, http.StatusInternalServerError, "Error fetching video results.", err)
		return
	}

	questions, err := a.Questions.ListByJobID(r.Context(), job.ID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "Error fetching video results.", err)
		return
	}
	for _, q := range orderQuestions(job.QuestionIDs, questions) {
		resp.MCQs = append(resp.MCQs, mcqView{
			ID:               q.ID,
			VideoID:          q.JobID,
			SegmentStartTime: q.SegmentStartTime,
			SegmentEndTime:   q.SegmentEndTime,
			Question:         q.Question,
			Options:          q.Options,
			CorrectAnswer:    q.CorrectAnswer,
			GeneratedDate:    q.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, resp)
}

// orderQuestions follows the id list stored on the job. Questions not listed
// there (left by an interrupted run) are omitted.
func orderQuestions(ids []string, questions []domain.Question) []domain.Question {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	id := chi.URLParam(r, "id")
	if !validJobID(id) {
		a.error(w, http.StatusNotFound, "Video not found.", nil)
		return nil, false
	}
	job, err := a.Jobs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Video not found.", nil)
			return nil, false
		}
		a.error(w, http.StatusInternalServerError, "Error fetching video.", err)
		return nil, false
	}
	return job, true
}

func validJobID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
