package enrich

import (
	"context"
	"regexp"
	"strings"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/oracle"
	"github.com/esoadamo/micro-cti-go/internal/store"
)

var cybersecKeywords = []string{
	"infosec", "cybersec", "vuln", "hack", "exploit", "deepfake", "threat",
	"leak", "phishing", "bypass", "outage", "steal", "malicious", "compromise",
}

var handlePattern = regexp.MustCompile(`@\S+`)

const filterSystemPrompt = "You are a cybersecurity AI assistant capable of deciding if a post sent by the " +
	"user is written in english and about some cybersecurity topic (including but not limited to tools, " +
	"attacks, techniques, hacks, cybersecurity news, research, threat intelligence, vulnerabilities, " +
	"exploits and service downtimes) or some other subject. True means that the post is in english and " +
	"about cybersecurity, false means that it is not."

// containsCybersecKeyword reports whether body, lowercased with
// @handles stripped, contains any whitelisted keyword as a substring.
func containsCybersecKeyword(body string) bool {
	cleaned := handlePattern.ReplaceAllString(strings.ToLower(body), "")
	for _, kw := range cybersecKeywords {
		if strings.Contains(cleaned, kw) {
			return true
		}
	}
	return false
}

// RunFilterStage drains posts with is_ingested=false (Stage A): it
// marks each visible or hidden and, once visible, materializes
// content_search, then sets is_ingested=true so the post never
// re-enters this stage. forceAI skips the keyword shortcut, as used
// by the filter-posts job over historical data.
func RunFilterStage(ctx context.Context, st store.Store, o oracle.Oracle, forceAI bool) (int, error) {
	f := false
	filter := store.PostFilter{IsIngested: &f}

	return drain(ctx, st, filter, func(ctx context.Context, p *models.Post) error {
		visible, err := classifyVisible(ctx, o, p, forceAI)
		if err != nil {
			return err
		}

		fields := map[string]any{
			"is_hidden":   !visible,
			"is_ingested": true,
		}
		if visible {
			fields["content_search"] = buildContentSearch(p)
		}
		return st.UpdatePostFields(ctx, p.ID, fields)
	})
}

func classifyVisible(ctx context.Context, o oracle.Oracle, p *models.Post, forceAI bool) (bool, error) {
	if !forceAI && containsCybersecKeyword(p.ContentTxt) {
		return true, nil
	}
	body := p.ContentTxt
	if len(body) > 500 {
		body = body[:500]
	}
	userPrompt := "Is this post written in english and about cybersecurity? Answer true or false: " +
		strings.ReplaceAll(body, "\n", " ")
	return oracle.AskBool(ctx, o, filterSystemPrompt, userPrompt, 0)
}
