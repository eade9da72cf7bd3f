package analyzer_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/onionwatch/onionwatch/internal/analyzer"
)

var noIgnoredExtensions = map[string]struct{}{}

func TestValidateOnionURL_AcceptsV3Address(t *testing.T) {
	label := strings.Repeat("a", 56)
	ok := analyzer.ValidateOnionURL("http://"+label+".onion/page", noIgnoredExtensions)
	if !ok {
		t.Fatalf("expected v3 onion URL to validate")
	}
}

func TestValidateOnionURL_AcceptsV2Address(t *testing.T) {
	label := strings.Repeat("b", 16)
	ok := analyzer.ValidateOnionURL("http://"+label+".onion/", noIgnoredExtensions)
	if !ok {
		t.Fatalf("expected v2 onion URL to validate")
	}
}

func TestValidateOnionURL_RejectsNonOnionHost(t *testing.T) {
	if analyzer.ValidateOnionURL("http://example.com/", noIgnoredExtensions) {
		t.Fatalf("expected clearnet host to be rejected")
	}
}

func TestValidateOnionURL_RejectsWrongLabelLength(t *testing.T) {
	label := strings.Repeat("c", 20)
	if analyzer.ValidateOnionURL("http://"+label+".onion/", noIgnoredExtensions) {
		t.Fatalf("expected non-16/56 char label to be rejected")
	}
}

func TestValidateOnionURL_RejectsIgnoredExtension(t *testing.T) {
	label := strings.Repeat("a", 56)
	ignored := map[string]struct{}{".jpg": {}}
	if analyzer.ValidateOnionURL("http://"+label+".onion/image.jpg", ignored) {
		t.Fatalf("expected ignored extension to be rejected")
	}
}

func TestNormalizeURL_DropsLongQuery(t *testing.T) {
	label := strings.Repeat("a", 56)
	longQuery := strings.Repeat("x", 101)
	got, err := analyzer.NormalizeURL("http://" + label + ".onion/page?" + longQuery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "?") {
		t.Errorf("expected long query to be dropped, got %s", got)
	}
}

func TestNormalizeURL_KeepsShortQuery(t *testing.T) {
	label := strings.Repeat("a", 56)
	got, err := analyzer.NormalizeURL("http://" + label + ".onion/page?id=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "id=1") {
		t.Errorf("expected short query to survive, got %s", got)
	}
}

func TestNormalizeURL_EnsuresTrailingSlashWhenNoDot(t *testing.T) {
	label := strings.Repeat("a", 56)
	got, err := analyzer.NormalizeURL("http://" + label + ".onion/forum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, "/") {
		t.Errorf("expected trailing slash, got %s", got)
	}
}

func TestNormalizeURL_LeavesFileExtensionAlone(t *testing.T) {
	label := strings.Repeat("a", 56)
	got, err := analyzer.NormalizeURL("http://" + label + ".onion/page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.HasSuffix(got, "/") {
		t.Errorf("expected no trailing slash added after dotted segment, got %s", got)
	}
}

func TestExtractLinks_FiltersNonOnionAndNoise(t *testing.T) {
	label := strings.Repeat("a", 56)
	html := `<html><body>
		<a href="http://` + label + `.onion/a">ok</a>
		<a href="http://example.com/clearnet">skip</a>
		<a href="javascript:void(0)">skip</a>
		<a href="mailto:a@b.com">skip</a>
		<a href="#top">skip</a>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links := analyzer.ExtractLinks("http://"+label+".onion/", doc, noIgnoredExtensions)
	if len(links) != 1 {
		t.Fatalf("expected exactly one surviving link, got %v", links)
	}
}

func TestDetectLanguage_EmptyWhenTooShort(t *testing.T) {
	if lang := analyzer.DetectLanguage("short text"); lang != "" {
		t.Errorf("expected empty language for short text, got %q", lang)
	}
}

func TestDetectLanguage_EnglishStopwordsWin(t *testing.T) {
	text := strings.Repeat("the and is are you this with for have that ", 3)
	if lang := analyzer.DetectLanguage(text); lang != "english" {
		t.Errorf("expected english, got %q", lang)
	}
}

func TestClassifyCategory_TitleCarriesTripleWeight(t *testing.T) {
	title := "Welcome to the Market"
	text := "forum thread reply post a comment"
	category := analyzer.ClassifyCategory(title, text)
	if category != "marketplace" {
		t.Errorf("expected marketplace to win on title weight, got %q", category)
	}
}

func TestFingerprintTechStack_MapsCookiesAndHeaders(t *testing.T) {
	headers := map[string]string{"X-Powered-By": "PHP/8.1"}
	cookies := []string{"PHPSESSID", "unrelated"}

	stack := analyzer.FingerprintTechStack(headers, cookies)
	if len(stack) != 2 {
		t.Fatalf("expected two fingerprint hits, got %v", stack)
	}
}

func TestIsPublicIP_RejectsPrivateAndLoopbackRanges(t *testing.T) {
	private := []string{"127.0.0.1", "10.0.0.5", "192.168.1.1", "172.16.0.1", "169.254.1.1", "::1"}
	for _, ip := range private {
		if analyzer.IsPublicIP(ip) {
			t.Errorf("expected %s to be classified as private, got public", ip)
		}
	}
}

func TestIsPublicIP_AcceptsPublicAddress(t *testing.T) {
	if !analyzer.IsPublicIP("8.8.8.8") {
		t.Error("expected 8.8.8.8 to be classified as public")
	}
}
