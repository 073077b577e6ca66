package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/ask"
)

// maxUploadBytes bounds the optional file attached to an ask request.
const maxUploadBytes = 32 << 20

// ndjsonSink writes events as newline-delimited JSON, flushing after each
// one so the client sees tokens as they arrive.
type ndjsonSink struct {
	enc     *json.Encoder
	flusher http.Flusher
}

func (s *ndjsonSink) Emit(e ask.Event) error {
	if err := s.enc.Encode(e); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// handleAsk answers a question with a streamed NDJSON event sequence.
// The request is multipart form data: a required question field and an
// optional file upload. Once streaming starts, failures surface as terminal
// error events rather than HTTP status codes.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, siteask.Errorf(siteask.EINVALID, "malformed multipart request"))
		return
	}
	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		s.writeError(w, r, siteask.Errorf(siteask.EINVALID, "question required"))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	sink := &ndjsonSink{enc: json.NewEncoder(w), flusher: flusher}
	fail := func(err error) {
		_ = sink.Emit(ask.Event{Type: ask.EventError, Content: siteask.ErrorMessage(err)})
	}

	ctx := r.Context()

	uploaded, uploadedText, err := s.storeUpload(r)
	if err != nil {
		fail(err)
		return
	}

	k := s.RetrieveK
	if k <= 0 {
		k = DefaultRetrieveK
	}
	retrieval, err := s.Retriever.Retrieve(ctx, question, k)
	if err != nil {
		fail(err)
		return
	}
	mergeUpload(retrieval, uploaded, uploadedText)

	builder := &ask.PromptBuilder{Store: s.Store}
	prompt, err := builder.Assemble(ctx, question, retrieval)
	if err != nil {
		fail(err)
		return
	}

	stream, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		fail(err)
		return
	}

	infos, err := s.Store.ListAssets(ctx)
	if err != nil {
		stream.Close()
		fail(err)
		return
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}

	opts := []ask.CoordinatorOption{
		ask.WithLogger(s.logger()),
		ask.WithMetrics(s.metrics()),
	}
	if s.StreamIdleTimeout > 0 {
		opts = append(opts, ask.WithIdleTimeout(s.StreamIdleTimeout))
	}
	coord := ask.NewCoordinator(s.Store, ids, opts...)
	if err := coord.Run(ctx, stream, sink); err != nil {
		s.logger().Error("ask stream failed", "error", err)
	}
}

// storeUpload decodes and stores the optional file upload, making it both
// referenceable by marker and part of the retrieval context. Returns a nil
// asset when no file was attached.
func (s *Server) storeUpload(r *http.Request) (*siteask.Asset, string, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", siteask.Errorf(siteask.EINVALID, "malformed file upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, "", siteask.Errorf(siteask.EINVALID, "read upload: %v", err)
	}

	filename := header.Filename
	if filename == "" {
		filename = "blob"
	}

	decoded, err := s.Decoder.Decode(filename, data)
	if err != nil {
		return nil, "", err
	}

	sourceURL := "uploaded://" + uuid.New().String() + "-" + filename
	asset := &siteask.Asset{
		SourceURL: sourceURL,
		PageURL:   sourceURL,
		MIMEType:  decoded.MIMEType,
		Filename:  filename,
	}

	content := data
	if decoded.IsImage {
		asset.Kind = siteask.KindImage
	} else {
		asset.Kind = siteask.KindText
		content = []byte(decoded.Text)
	}

	if err := s.Store.CreateAsset(r.Context(), asset, content); err != nil {
		return nil, "", err
	}
	s.metrics().AssetStored(asset.Kind)

	if s.Indexer != nil {
		if decoded.IsImage {
			s.Indexer.IndexImage(asset)
		} else if decoded.Text != "" {
			if err := s.Indexer.IndexText(asset, decoded.Text); err != nil {
				s.logger().Warn("index upload failed", "id", asset.ID, "error", err)
			}
		}
	}

	return asset, decoded.Text, nil
}

// mergeUpload folds the uploaded asset into the retrieval result so the
// current request always sees its own upload: an uploaded image takes the
// single image slot, uploaded text leads the snippets.
func mergeUpload(r *siteask.Retrieval, uploaded *siteask.Asset, text string) {
	if uploaded == nil {
		return
	}
	if uploaded.Kind == siteask.KindImage {
		r.Image = uploaded
		return
	}
	if text == "" {
		return
	}
	for _, s := range r.Texts {
		if s.AssetID == uploaded.ID {
			return
		}
	}
	r.Texts = append([]siteask.Snippet{{AssetID: uploaded.ID, Content: text}}, r.Texts...)
}
