package client

import (
	"fmt"

	"github.com/golang/glog"
)

// haptic kinds forwarded to the host
const (
	NotifyLight   = "light"
	NotifySuccess = "success"
	NotifyError   = "error"
)

// PlatformContext is the narrow capability surface the core needs from the
// mini app host. the concrete host object never crosses into this package.
type PlatformContext interface {
	// the opaque host issued credential blob, empty outside a host context
	GetCredential() string
	// best effort haptic/notification hint
	Notify(kind string)
	// hand a url to the host share sheet
	ShareLink(url string, text string)
}

type NoopPlatform struct {
}

func (self *NoopPlatform) GetCredential() string {
	return ""
}

func (self *NoopPlatform) Notify(kind string) {
}

func (self *NoopPlatform) ShareLink(url string, text string) {
}

// StaticPlatform carries a fixed credential. used by fetenactl and tests,
// where there is no embedding host.
type StaticPlatform struct {
	Credential string
}

func (self *StaticPlatform) GetCredential() string {
	return self.Credential
}

func (self *StaticPlatform) Notify(kind string) {
	glog.V(2).Infof("[platform]notify %s\n", kind)
}

func (self *StaticPlatform) ShareLink(url string, text string) {
	glog.V(2).Infof("[platform]share %s\n", url)
}

// ShareExam composes the exam deep link and hands it to the host share
// sheet. `webUrl` is the public site origin.
func ShareExam(platform PlatformContext, webUrl string, exam *ExamRecord) {
	if platform == nil || exam == nil {
		return
	}
	url := fmt.Sprintf("%s/exam/%s", webUrl, exam.Id)
	text := "Check out this exam"
	if exam.Course != nil && exam.Course.Name != "" {
		text = fmt.Sprintf("Check out this exam: %s", exam.Course.Name)
	}
	platform.ShareLink(url, text)
	platform.Notify(NotifyLight)
}
