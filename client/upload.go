package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/golang/glog"
)

// the repeated multipart field name. order of the parts becomes page order
const uploadFieldName = "files"

// LocalFile is one selected local file inside a batch, with its transient
// per file upload state.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte

	// optional local preview handle for the view layer
	Preview string

	Uploading bool
	Progress  int
	// remote url once the batch resolves
	Url string
}

// UploadBatch is the client local aggregate of one upload interaction.
// it exists only for the duration of that interaction.
type UploadBatch struct {
	BatchId Id
	ExamId  Id
	Files   []*LocalFile
}

func NewUploadBatch(examId Id, files ...*LocalFile) *UploadBatch {
	return &UploadBatch{
		BatchId: NewId(),
		ExamId:  examId,
		Files:   files,
	}
}

// Reset destroys the batch contents. called on success or explicit
// cancellation by the owner of the interaction.
func (self *UploadBatch) Reset() {
	self.Files = nil
}

type ProgressFunction func(percent int)

type UploadCallback apiCallback[[]*ExamPage]

// UploadPipeline streams an ordered batch of files to the server as one
// multipart transaction. the batch is atomic from the client's view:
// either all pages are created or none are. no automatic retry; the caller
// may re-invoke with the same ordered file list.
type UploadPipeline struct {
	api *FetenaHubApi

	stateLock sync.Mutex
	inFlight  map[Id]bool
}

func NewUploadPipeline(api *FetenaHubApi) *UploadPipeline {
	return &UploadPipeline{
		api:      api,
		inFlight: map[Id]bool{},
	}
}

func (self *UploadPipeline) Upload(batch *UploadBatch, progress ProgressFunction, callback UploadCallback) {
	go self.UploadSync(batch, progress, callback)
}

// UploadSync runs the multipart transaction to completion.
// preconditions checked before any network i/o:
// - the batch is non empty
// - no other upload is in flight for the same exam id
// progress is reported as monotonically non decreasing ints 0-100,
// floor(sent/total*100), and only when the total is computable.
func (self *UploadPipeline) UploadSync(batch *UploadBatch, progress ProgressFunction, callback UploadCallback) ([]*ExamPage, error) {
	if callback == nil {
		callback = NewNoopApiCallback[[]*ExamPage]()
	}

	if batch == nil || len(batch.Files) == 0 {
		err := &ValidationError{Message: "upload batch is empty"}
		callback.Result(nil, err)
		return nil, err
	}

	self.stateLock.Lock()
	if self.inFlight[batch.ExamId] {
		self.stateLock.Unlock()
		err := &ValidationError{Message: "upload already in flight for exam"}
		callback.Result(nil, err)
		return nil, err
	}
	self.inFlight[batch.ExamId] = true
	self.stateLock.Unlock()
	defer func() {
		self.stateLock.Lock()
		delete(self.inFlight, batch.ExamId)
		self.stateLock.Unlock()
	}()

	for _, file := range batch.Files {
		file.Uploading = true
		file.Progress = 0
	}
	defer func() {
		for _, file := range batch.Files {
			file.Uploading = false
		}
	}()

	body, contentType, err := encodeMultipart(batch.Files)
	if err != nil {
		uploadErr := &UploadError{Message: ErrorCodeUploadFailed}
		callback.Result(nil, uploadErr)
		return nil, uploadErr
	}

	bodyReader := newProgressReader(bytes.NewReader(body), int64(len(body)), func(percent int) {
		for _, file := range batch.Files {
			file.Progress = percent
		}
		if progress != nil {
			progress(percent)
		}
	})

	url := fmt.Sprintf("%s/exams/%s/files", self.api.apiUrl, batch.ExamId)
	req, err := http.NewRequestWithContext(self.api.ctx, "POST", url, bodyReader)
	if err != nil {
		uploadErr := &UploadError{Message: ErrorCodeUploadFailed}
		callback.Result(nil, uploadErr)
		return nil, uploadErr
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(credentialHeader, self.api.credential())
	req.ContentLength = int64(len(body))

	glog.V(2).Infof("[upload]%s start batch %s, %d files\n", batch.ExamId, batch.BatchId, len(batch.Files))

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		uploadErr := &UploadError{Message: ErrorCodeUploadFailed}
		glog.Infof("[upload]%s network error = %s\n", batch.ExamId, err)
		callback.Result(nil, uploadErr)
		return nil, uploadErr
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		uploadErr := &UploadError{Message: ErrorCodeUploadFailed}
		callback.Result(nil, uploadErr)
		return nil, uploadErr
	}

	// an undecodable body is upload_failed regardless of status
	uploadResult := &uploadResultBody{}
	if err := json.Unmarshal(responseBodyBytes, uploadResult); err != nil {
		uploadErr := &UploadError{Message: ErrorCodeUploadFailed}
		callback.Result(nil, uploadErr)
		return nil, uploadErr
	}

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		message := ErrorCodeUploadFailed
		if uploadResult.Error != "" {
			message = uploadResult.Error
		}
		uploadErr := &UploadError{Message: message}
		glog.Infof("[upload]%s status %d = %s\n", batch.ExamId, r.StatusCode, message)
		callback.Result(nil, uploadErr)
		return nil, uploadErr
	}

	pages := uploadResult.Files
	for i, page := range pages {
		if i < len(batch.Files) {
			batch.Files[i].Url = page.FileUrl
			batch.Files[i].Progress = 100
		}
	}

	glog.V(2).Infof("[upload]%s done batch %s, %d pages\n", batch.ExamId, batch.BatchId, len(pages))
	callback.Result(pages, nil)
	return pages, nil
}

type uploadResultBody struct {
	Files []*ExamPage `json:"files"`
	Error string      `json:"error,omitempty"`
}

func encodeMultipart(files []*LocalFile) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, file := range files {
		header := textproto.MIMEHeader{}
		header.Set(
			"Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadFieldName, escapeQuotes(file.Name)),
		)
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// progressReader invokes the progress callback as the transport drains the
// request body. percents are non decreasing; the final read reports 100.
type progressReader struct {
	reader   io.Reader
	total    int64
	sent     int64
	last     int
	progress ProgressFunction
}

func newProgressReader(reader io.Reader, total int64, progress ProgressFunction) *progressReader {
	return &progressReader{
		reader:   reader,
		total:    total,
		last:     -1,
		progress: progress,
	}
}

func (self *progressReader) Read(b []byte) (int, error) {
	n, err := self.reader.Read(b)
	if 0 < n {
		self.sent += int64(n)
		// only report when the total is computable
		if 0 < self.total && self.progress != nil {
			percent := int(self.sent * 100 / self.total)
			if 100 < percent {
				percent = 100
			}
			if self.last < percent {
				self.last = percent
				self.progress(percent)
			}
		}
	}
	return n, err
}
