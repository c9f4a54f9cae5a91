package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
)

const defaultHttpTimeout = 60 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second

// every request except the initial auth exchange carries the host
// credential in this header. the server is trusted to reject empty values.
const credentialHeader = "x-telegram-init-data"

func defaultClient() *http.Client {
	// see https://medium.com/@nate510/don-t-use-go-s-default-http-client-4804cb19f779
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}

type apiCallback[R any] interface {
	Result(result R, err error)
}

// for internal use
type simpleApiCallback[R any] struct {
	callback func(result R, err error)
}

func NewApiCallback[R any](callback func(result R, err error)) apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: callback,
	}
}

func NewNoopApiCallback[R any]() apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: func(result R, err error) {},
	}
}

func (self *simpleApiCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}

type ApiCallbackResult[R any] struct {
	Result R
	Error  error
}

func NewBlockingApiCallback[R any]() (apiCallback[R], chan ApiCallbackResult[R]) {
	c := make(chan ApiCallbackResult[R])
	apiCallback := NewApiCallback[R](func(result R, err error) {
		c <- ApiCallbackResult[R]{
			Result: result,
			Error:  err,
		}
	})
	return apiCallback, c
}

// Session is the explicit current identity context. created on a successful
// auth exchange, torn down by `SignOut`, absent entirely pre auth.
type Session struct {
	Identity *Identity
	// parsed from the session token claims when the server includes one
	Claims *SessionClaims
	Token  string
}

type FetenaHubApi struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl   string
	platform PlatformContext

	stateLock sync.Mutex
	session   *Session
}

func NewFetenaHubApi(apiUrl string, platform PlatformContext) *FetenaHubApi {
	return NewFetenaHubApiWithContext(context.Background(), apiUrl, platform)
}

func NewFetenaHubApiWithContext(ctx context.Context, apiUrl string, platform PlatformContext) *FetenaHubApi {
	cancelCtx, cancel := context.WithCancel(ctx)
	if platform == nil {
		platform = &NoopPlatform{}
	}
	return &FetenaHubApi{
		ctx:      cancelCtx,
		cancel:   cancel,
		apiUrl:   apiUrl,
		platform: platform,
	}
}

// credential for the current call. sourced from the host on every call so
// the host can rotate it without the api noticing.
func (self *FetenaHubApi) credential() string {
	return self.platform.GetCredential()
}

func (self *FetenaHubApi) Session() *Session {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.session
}

func (self *FetenaHubApi) setSession(session *Session) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	self.session = session
}

func (self *FetenaHubApi) SignOut() {
	self.setSession(nil)
}

type AuthCallback apiCallback[*AuthResult]

type AuthArgs struct {
	InitData string `json:"initData"`
}

type AuthResult struct {
	User *Identity `json:"user"`
	// optional server issued session token
	Token string `json:"token,omitempty"`
}

// Authenticate exchanges the opaque host credential for a server issued
// identity. no retry; a caller may treat failure as fatal or continue
// browsing unauthenticated.
func (self *FetenaHubApi) Authenticate(callback AuthCallback) {
	go self.AuthenticateSync(callback)
}

func (self *FetenaHubApi) AuthenticateSync(callback AuthCallback) (*AuthResult, error) {
	if callback == nil {
		callback = NewNoopApiCallback[*AuthResult]()
	}
	credential := self.credential()
	if credential == "" {
		err := &AuthError{Message: "no host credential"}
		callback.Result(nil, err)
		return nil, err
	}
	result, err := request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/auth/telegram", self.apiUrl),
		&AuthArgs{InitData: credential},
		"",
		&AuthResult{},
		NewNoopApiCallback[*AuthResult](),
	)
	if err != nil {
		// surface the raw server error string
		authErr := &AuthError{Message: errorMessage(err, ErrorCodeAuthFailed)}
		callback.Result(nil, authErr)
		return nil, authErr
	}
	if result == nil || result.User == nil {
		authErr := &AuthError{Message: ErrorCodeAuthFailed}
		callback.Result(nil, authErr)
		return nil, authErr
	}
	session := &Session{
		Identity: result.User,
		Token:    result.Token,
	}
	if result.Token != "" {
		// claims are advisory. a malformed token is not an auth failure
		if claims, err := ParseSessionTokenUnverified(result.Token); err == nil {
			session.Claims = claims
		} else {
			glog.V(2).Infof("[auth]ignoring malformed session token = %s\n", err)
		}
	}
	self.setSession(session)
	callback.Result(result, nil)
	return result, nil
}

type ProfileCallback apiCallback[*ProfileResult]

type ProfileResult struct {
	User *Identity `json:"user"`
}

func (self *FetenaHubApi) GetProfile(callback ProfileCallback) {
	go self.GetProfileSync(callback)
}

func (self *FetenaHubApi) GetProfileSync(callback ProfileCallback) (*ProfileResult, error) {
	return request(
		self.ctx,
		"GET",
		fmt.Sprintf("%s/users/me", self.apiUrl),
		nil,
		self.credential(),
		&ProfileResult{},
		callback,
	)
}

func (self *FetenaHubApi) GetUser(userId Id, callback ProfileCallback) {
	go self.GetUserSync(userId, callback)
}

func (self *FetenaHubApi) GetUserSync(userId Id, callback ProfileCallback) (*ProfileResult, error) {
	return request(
		self.ctx,
		"GET",
		fmt.Sprintf("%s/users/%s", self.apiUrl, userId),
		nil,
		self.credential(),
		&ProfileResult{},
		callback,
	)
}

type UpdateProfileArgs struct {
	Username  *string `json:"username,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarUrl *string `json:"avatar_url,omitempty"`
}

func (self *FetenaHubApi) UpdateProfile(updateProfile *UpdateProfileArgs, callback ProfileCallback) {
	go self.UpdateProfileSync(updateProfile, callback)
}

func (self *FetenaHubApi) UpdateProfileSync(updateProfile *UpdateProfileArgs, callback ProfileCallback) (*ProfileResult, error) {
	if callback == nil {
		callback = NewNoopApiCallback[*ProfileResult]()
	}
	result, err := request(
		self.ctx,
		"PATCH",
		fmt.Sprintf("%s/users/me", self.apiUrl),
		updateProfile,
		self.credential(),
		&ProfileResult{},
		NewNoopApiCallback[*ProfileResult](),
	)
	if err == nil && result != nil && result.User != nil {
		// profile edits mutate the current identity
		self.stateLock.Lock()
		if self.session != nil {
			self.session.Identity = result.User
		}
		self.stateLock.Unlock()
	}
	callback.Result(result, err)
	return result, err
}

type OkCallback apiCallback[*OkResult]

type OkResult struct {
	Ok bool `json:"ok"`
}

func (self *FetenaHubApi) FollowUserSync(userId Id, callback OkCallback) (*OkResult, error) {
	return request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/users/%s/follow", self.apiUrl, userId),
		nil,
		self.credential(),
		&OkResult{},
		callback,
	)
}

func (self *FetenaHubApi) UnfollowUserSync(userId Id, callback OkCallback) (*OkResult, error) {
	return request(
		self.ctx,
		"DELETE",
		fmt.Sprintf("%s/users/%s/follow", self.apiUrl, userId),
		nil,
		self.credential(),
		&OkResult{},
		callback,
	)
}

func (self *FetenaHubApi) LikeExamSync(examId Id, callback OkCallback) (*OkResult, error) {
	return request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/exams/%s/like", self.apiUrl, examId),
		nil,
		self.credential(),
		&OkResult{},
		callback,
	)
}

func (self *FetenaHubApi) UnlikeExamSync(examId Id, callback OkCallback) (*OkResult, error) {
	return request(
		self.ctx,
		"DELETE",
		fmt.Sprintf("%s/exams/%s/like", self.apiUrl, examId),
		nil,
		self.credential(),
		&OkResult{},
		callback,
	)
}

type UniversitiesCallback apiCallback[*UniversitiesResult]

type UniversitiesResult struct {
	Universities []*University `json:"universities"`
}

func (self *FetenaHubApi) GetUniversities(callback UniversitiesCallback) {
	go self.GetUniversitiesSync(callback)
}

func (self *FetenaHubApi) GetUniversitiesSync(callback UniversitiesCallback) (*UniversitiesResult, error) {
	return request(
		self.ctx,
		"GET",
		fmt.Sprintf("%s/universities", self.apiUrl),
		nil,
		self.credential(),
		&UniversitiesResult{},
		callback,
	)
}

type CreateUniversityCallback apiCallback[*CreateUniversityResult]

type CreateUniversityArgs struct {
	Name string `json:"name"`
}

type CreateUniversityResult struct {
	University *University `json:"university"`
}

func (self *FetenaHubApi) CreateUniversitySync(createUniversity *CreateUniversityArgs, callback CreateUniversityCallback) (*CreateUniversityResult, error) {
	return request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/universities", self.apiUrl),
		createUniversity,
		self.credential(),
		&CreateUniversityResult{},
		callback,
	)
}

type CoursesCallback apiCallback[*CoursesResult]

type CoursesResult struct {
	Courses []*Course `json:"courses"`
}

func (self *FetenaHubApi) GetCourses(callback CoursesCallback) {
	go self.GetCoursesSync(callback)
}

func (self *FetenaHubApi) GetCoursesSync(callback CoursesCallback) (*CoursesResult, error) {
	return request(
		self.ctx,
		"GET",
		fmt.Sprintf("%s/courses", self.apiUrl),
		nil,
		self.credential(),
		&CoursesResult{},
		callback,
	)
}

type CreateCourseCallback apiCallback[*CreateCourseResult]

type CreateCourseArgs struct {
	Name string `json:"name"`
}

type CreateCourseResult struct {
	Course *Course `json:"course"`
}

func (self *FetenaHubApi) CreateCourseSync(createCourse *CreateCourseArgs, callback CreateCourseCallback) (*CreateCourseResult, error) {
	return request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/courses", self.apiUrl),
		createCourse,
		self.credential(),
		&CreateCourseResult{},
		callback,
	)
}

type ExamsCallback apiCallback[*ExamsResult]

type ExamsResult struct {
	Exams []*ExamRecord `json:"exams"`
}

func (self *FetenaHubApi) GetExams(filter *FilterSpec, callback ExamsCallback) {
	go self.GetExamsSync(filter, callback)
}

func (self *FetenaHubApi) GetExamsSync(filter *FilterSpec, callback ExamsCallback) (*ExamsResult, error) {
	if callback == nil {
		callback = NewNoopApiCallback[*ExamsResult]()
	}
	if filter == nil {
		filter = &FilterSpec{}
	}
	result, err := request(
		self.ctx,
		"GET",
		fmt.Sprintf("%s/exams?%s", self.apiUrl, filter.encodeQuery()),
		nil,
		self.credential(),
		&ExamsResult{},
		NewNoopApiCallback[*ExamsResult](),
	)
	if err == nil && result != nil {
		NormalizeExams(result.Exams)
	}
	callback.Result(result, err)
	return result, err
}

type ExamCallback apiCallback[*ExamResult]

type ExamResult struct {
	Exam *ExamRecord `json:"exam"`
}

func (self *FetenaHubApi) GetExam(examId Id, callback ExamCallback) {
	go self.GetExamSync(examId, callback)
}

func (self *FetenaHubApi) GetExamSync(examId Id, callback ExamCallback) (*ExamResult, error) {
	if callback == nil {
		callback = NewNoopApiCallback[*ExamResult]()
	}
	result, err := request(
		self.ctx,
		"GET",
		fmt.Sprintf("%s/exams/%s", self.apiUrl, examId),
		nil,
		self.credential(),
		&ExamResult{},
		NewNoopApiCallback[*ExamResult](),
	)
	if err == nil && result != nil {
		NormalizeExam(result.Exam)
	}
	callback.Result(result, err)
	return result, err
}

type CreateExamCallback apiCallback[*ExamResult]

type CreateExamArgs struct {
	UniversityId Id     `json:"university_id"`
	CourseId     Id     `json:"course_id"`
	Year         int    `json:"year"`
	ExamType     string `json:"exam_type"`
	TeacherName  string `json:"teacher_name,omitempty"`
}

// CreateExam creates the exam metadata. this is a separate, ordinary json
// call that must complete before files are attached with `UploadPipeline`.
func (self *FetenaHubApi) CreateExamSync(createExam *CreateExamArgs, callback CreateExamCallback) (*ExamResult, error) {
	if callback == nil {
		callback = NewNoopApiCallback[*ExamResult]()
	}
	// outbound kinds are lowercased
	args := *createExam
	args.ExamType = ExamKindForApi(ExamKind(args.ExamType))
	result, err := request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/exams", self.apiUrl),
		&args,
		self.credential(),
		&ExamResult{},
		NewNoopApiCallback[*ExamResult](),
	)
	if err == nil && result != nil {
		NormalizeExam(result.Exam)
	}
	callback.Result(result, err)
	return result, err
}

type ReportCallback apiCallback[*ReportResult]

type ReportArgs struct {
	TargetType string `json:"target_type"`
	TargetId   Id     `json:"target_id"`
	Reason     string `json:"reason"`
}

type ReportResult struct {
	Report *Report `json:"report"`
}

func (self *FetenaHubApi) CreateReport(createReport *ReportArgs, callback ReportCallback) {
	go self.CreateReportSync(createReport, callback)
}

func (self *FetenaHubApi) CreateReportSync(createReport *ReportArgs, callback ReportCallback) (*ReportResult, error) {
	return request(
		self.ctx,
		"POST",
		fmt.Sprintf("%s/reports", self.apiUrl),
		createReport,
		self.credential(),
		&ReportResult{},
		callback,
	)
}

// the server error envelope
type errorBody struct {
	Error string `json:"error"`
}

// request is the single chokepoint for json calls. it injects the
// credential header, decodes the body as json only when the response
// content type declares json, and translates any non-2xx into a
// `RequestError`. downstream components never inspect status codes.
func request[R any](ctx context.Context, method string, url string, args any, credential string, result R, callback apiCallback[R]) (R, error) {
	if callback == nil {
		callback = NewNoopApiCallback[R]()
	}

	var requestBodyBytes []byte
	if args == nil {
		requestBodyBytes = make([]byte, 0)
	} else {
		var err error
		requestBodyBytes, err = json.Marshal(args)
		if err != nil {
			var empty R
			callback.Result(empty, err)
			return empty, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", "application/json")
	// always present, empty when no host context. the server rejects
	req.Header.Set(credentialHeader, credential)

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		var empty R
		requestErr := &RequestError{
			Message: ErrorCodeRequestFailed,
			cause:   err,
		}
		glog.V(2).Infof("[api]%s %s network error = %s\n", method, url, err)
		callback.Result(empty, requestErr)
		return empty, requestErr
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		var empty R
		requestErr := &RequestError{
			Status:  r.StatusCode,
			Message: ErrorCodeRequestFailed,
			cause:   err,
		}
		callback.Result(empty, requestErr)
		return empty, requestErr
	}

	jsonBody := strings.Contains(r.Header.Get("Content-Type"), "application/json")

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		message := ErrorCodeRequestFailed
		if jsonBody {
			body := &errorBody{}
			if err := json.Unmarshal(responseBodyBytes, body); err == nil && body.Error != "" {
				message = body.Error
			}
		}
		requestErr := &RequestError{
			Status:  r.StatusCode,
			Message: message,
		}
		glog.V(2).Infof("[api]%s %s status %d = %s\n", method, url, r.StatusCode, message)
		callback.Result(result, requestErr)
		return result, requestErr
	}

	if !jsonBody {
		// content negotiation: a non json body decodes to nothing
		var empty R
		callback.Result(empty, nil)
		return empty, nil
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		requestErr := &RequestError{
			Status:  r.StatusCode,
			Message: ErrorCodeRequestFailed,
			cause:   err,
		}
		callback.Result(empty, requestErr)
		return empty, requestErr
	}

	callback.Result(result, nil)
	return result, nil
}
