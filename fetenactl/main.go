package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/fetenahub/fetenahub/client"
)

const FetenaCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `FetenaHub control.

The default url is:
    api_url: https://api.fetenahub.app

Usage:
    fetenactl auth [--api_url=<api_url>] --init_data=<init_data>
    fetenactl feed [--api_url=<api_url>] [--init_data=<init_data>]
        [--university_id=<university_id>]
        [--course_id=<course_id>]
        [--year=<year>]
        [--search=<search>]
        [--followed]
        [--snapshot=<snapshot>]
    fetenactl upload [--api_url=<api_url>] --init_data=<init_data>
        --university_id=<university_id>
        --course_id=<course_id>
        --year=<year>
        --exam_type=<exam_type>
        [--teacher_name=<teacher_name>]
        <file>...
    fetenactl like [--api_url=<api_url>] --init_data=<init_data> <exam_id>
    fetenactl follow [--api_url=<api_url>] --init_data=<init_data> <user_id>
    fetenactl share [--api_url=<api_url>] [--init_data=<init_data>]
        [--web_url=<web_url>]
        <exam_id>
    fetenactl report [--api_url=<api_url>] --init_data=<init_data>
        --target_type=<target_type>
        --reason=<reason>
        <target_id>

Options:
    -h --help                          Show this screen.
    --version                          Show version.
    --api_url=<api_url>
    --init_data=<init_data>            Host issued credential blob.
    --university_id=<university_id>
    --course_id=<course_id>
    --year=<year>
    --search=<search>
    --followed                         Only followed uploaders.
    --snapshot=<snapshot>              Fallback snapshot file path.
    --web_url=<web_url>                Public site origin for deep links.
    --exam_type=<exam_type>            One of mid, final, quiz, other.
    --teacher_name=<teacher_name>
    --target_type=<target_type>        One of exam, user.
    --reason=<reason>                  One of wrong_content, spam, copyright_issue.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], FetenaCtlVersion)
	if err != nil {
		panic(err)
	}

	if auth_, _ := opts.Bool("auth"); auth_ {
		auth(opts)
	} else if feed_, _ := opts.Bool("feed"); feed_ {
		feed(opts)
	} else if upload_, _ := opts.Bool("upload"); upload_ {
		upload(opts)
	} else if like_, _ := opts.Bool("like"); like_ {
		like(opts)
	} else if follow_, _ := opts.Bool("follow"); follow_ {
		follow(opts)
	} else if share_, _ := opts.Bool("share"); share_ {
		share(opts)
	} else if report_, _ := opts.Bool("report"); report_ {
		report(opts)
	}
}

func newApi(opts docopt.Opts) *client.FetenaHubApi {
	apiUrl, _ := opts.String("--api_url")
	if apiUrl == "" {
		apiUrl = os.Getenv("FETENAHUB_API_URL")
	}
	if apiUrl == "" {
		apiUrl = "https://api.fetenahub.app"
	}
	initData, _ := opts.String("--init_data")
	if initData == "" {
		initData = os.Getenv("FETENAHUB_INIT_DATA")
	}
	platform := &client.StaticPlatform{
		Credential: initData,
	}
	return client.NewFetenaHubApi(apiUrl, platform)
}

func auth(opts docopt.Opts) {
	api := newApi(opts)
	result, err := api.AuthenticateSync(nil)
	if err != nil {
		Err.Fatalf("auth failed: %s", err)
	}
	Out.Printf("%s (%s)", result.User.Username, result.User.Id)
}

func feed(opts docopt.Opts) {
	api := newApi(opts)

	var store client.SnapshotStore
	if snapshotPath, _ := opts.String("--snapshot"); snapshotPath != "" {
		store = client.NewFileSnapshotStore(snapshotPath)
	}
	engine := client.NewFeedEngine(api, store)

	filter := &client.FilterSpec{}
	if universityIdStr, _ := opts.String("--university_id"); universityIdStr != "" {
		universityId, err := client.ParseId(universityIdStr)
		if err != nil {
			Err.Fatalf("bad university_id: %s", err)
		}
		filter.UniversityId = &universityId
	}
	if courseIdStr, _ := opts.String("--course_id"); courseIdStr != "" {
		courseId, err := client.ParseId(courseIdStr)
		if err != nil {
			Err.Fatalf("bad course_id: %s", err)
		}
		filter.CourseId = &courseId
	}
	if yearStr, _ := opts.String("--year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			Err.Fatalf("bad year: %s", err)
		}
		filter.Year = year
	}
	filter.Search, _ = opts.String("--search")
	filter.Followed, _ = opts.Bool("--followed")

	result, err := engine.QuerySync(filter, nil)
	if err != nil && result == nil {
		Err.Fatalf("feed failed: %s", err)
	}
	if err != nil {
		Err.Printf("feed failed, serving snapshot: %s", err)
	}
	for _, exam := range result.Exams {
		line := fmt.Sprintf("%s  %d %s", exam.Id, exam.Year, exam.ExamKind)
		if exam.Course != nil {
			line = fmt.Sprintf("%s  %s", line, exam.Course.Name)
		}
		if exam.TeacherName != "" {
			line = fmt.Sprintf("%s  (%s)", line, exam.TeacherName)
		}
		line = fmt.Sprintf("%s  %d likes, %d pages", line, exam.LikesCount, len(exam.Files))
		Out.Printf("%s", line)
	}
}

func upload(opts docopt.Opts) {
	api := newApi(opts)

	universityIdStr, _ := opts.String("--university_id")
	universityId, err := client.ParseId(universityIdStr)
	if err != nil {
		Err.Fatalf("bad university_id: %s", err)
	}
	courseIdStr, _ := opts.String("--course_id")
	courseId, err := client.ParseId(courseIdStr)
	if err != nil {
		Err.Fatalf("bad course_id: %s", err)
	}
	yearStr, _ := opts.String("--year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		Err.Fatalf("bad year: %s", err)
	}
	examType, _ := opts.String("--exam_type")
	teacherName, _ := opts.String("--teacher_name")

	createResult, err := api.CreateExamSync(&client.CreateExamArgs{
		UniversityId: universityId,
		CourseId:     courseId,
		Year:         year,
		ExamType:     examType,
		TeacherName:  teacherName,
	}, nil)
	if err != nil {
		Err.Fatalf("create exam failed: %s", err)
	}
	exam := createResult.Exam
	Out.Printf("created exam %s", exam.Id)

	paths := opts["<file>"].([]string)
	files := []*client.LocalFile{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			Err.Fatalf("read %s failed: %s", path, err)
		}
		files = append(files, &client.LocalFile{
			Name:        filepath.Base(path),
			ContentType: contentTypeForPath(path),
			Data:        data,
		})
	}

	// render a progress bar only on a terminal
	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	progress := func(percent int) {
		if interactive {
			fmt.Printf("\rupload %3d%%", percent)
			if percent == 100 {
				fmt.Printf("\n")
			}
		}
	}

	pipeline := client.NewUploadPipeline(api)
	batch := client.NewUploadBatch(exam.Id, files...)
	pages, err := pipeline.UploadSync(batch, progress, nil)
	if err != nil {
		Err.Fatalf("upload failed: %s", err)
	}
	batch.Reset()
	for _, page := range pages {
		Out.Printf("page %d: %s", page.PageOrder, page.FileUrl)
	}
}

func contentTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func like(opts docopt.Opts) {
	api := newApi(opts)

	examIdStr, _ := opts.String("<exam_id>")
	examId, err := client.ParseId(examIdStr)
	if err != nil {
		Err.Fatalf("bad exam_id: %s", err)
	}

	examResult, err := api.GetExamSync(examId, nil)
	if err != nil {
		Err.Fatalf("get exam failed: %s", err)
	}

	coordinator := client.NewSocialCoordinator(api)
	liked, err := coordinator.ToggleLikeSync(examResult.Exam, nil)
	if err != nil {
		Err.Fatalf("toggle like failed: %s", err)
	}
	Out.Printf("liked=%t likes=%d", liked, examResult.Exam.LikesCount)
}

func follow(opts docopt.Opts) {
	api := newApi(opts)

	userIdStr, _ := opts.String("<user_id>")
	userId, err := client.ParseId(userIdStr)
	if err != nil {
		Err.Fatalf("bad user_id: %s", err)
	}

	userResult, err := api.GetUserSync(userId, nil)
	if err != nil {
		Err.Fatalf("get user failed: %s", err)
	}

	coordinator := client.NewSocialCoordinator(api)
	following, err := coordinator.ToggleFollowSync(userResult.User, nil)
	if err != nil {
		Err.Fatalf("toggle follow failed: %s", err)
	}
	Out.Printf("following=%t followers=%d", following, userResult.User.FollowersCount)
}

// routes the composed deep link to stdout instead of a host share sheet
type sharePlatform struct {
	client.StaticPlatform
}

func (self *sharePlatform) ShareLink(url string, text string) {
	Out.Printf("%s  %s", url, text)
}

func share(opts docopt.Opts) {
	api := newApi(opts)

	webUrl, _ := opts.String("--web_url")
	if webUrl == "" {
		webUrl = os.Getenv("FETENAHUB_WEB_URL")
	}
	if webUrl == "" {
		webUrl = "https://fetenahub.app"
	}

	examIdStr, _ := opts.String("<exam_id>")
	examId, err := client.ParseId(examIdStr)
	if err != nil {
		Err.Fatalf("bad exam_id: %s", err)
	}

	examResult, err := api.GetExamSync(examId, nil)
	if err != nil {
		Err.Fatalf("get exam failed: %s", err)
	}

	initData, _ := opts.String("--init_data")
	platform := &sharePlatform{
		StaticPlatform: client.StaticPlatform{Credential: initData},
	}
	client.ShareExam(platform, webUrl, examResult.Exam)
}

func report(opts docopt.Opts) {
	api := newApi(opts)

	targetType, _ := opts.String("--target_type")
	reason, _ := opts.String("--reason")
	targetIdStr, _ := opts.String("<target_id>")
	targetId, err := client.ParseId(targetIdStr)
	if err != nil {
		Err.Fatalf("bad target_id: %s", err)
	}

	result, err := api.CreateReportSync(&client.ReportArgs{
		TargetType: targetType,
		TargetId:   targetId,
		Reason:     reason,
	}, nil)
	if err != nil {
		Err.Fatalf("report failed: %s", err)
	}
	Out.Printf("report %s status=%s", result.Report.Id, result.Report.Status)
}
