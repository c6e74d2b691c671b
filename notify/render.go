package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/user"
)

// DefaultRenderer produces a plain-text alert naming the job, its run-by
// deadline in the recipient's timezone, and a deep link when the site has
// a base URL.
func DefaultRenderer(j *job.Job, recipient *user.User, site Site) Message {
	runBy := j.RunBy().In(recipient.Location())

	var b strings.Builder
	fmt.Fprintf(&b, "The job %q did not check in by %s.\n", j.Name, runBy.Format(time.RFC1123))
	if j.Description != "" {
		b.WriteString("\n" + j.Description + "\n")
	}
	fmt.Fprintf(&b, "\nSchedule: %s (window %d min)\n", j.Schedule, j.TimeWindow)
	if site.BaseURL != "" {
		fmt.Fprintf(&b, "\n%s/jobs/%s\n", strings.TrimRight(site.BaseURL, "/"), j.ID)
	}

	subject := fmt.Sprintf("[%s] %s missed its check-in window", site.Name, j.Name)
	if site.Name == "" {
		subject = fmt.Sprintf("%s missed its check-in window", j.Name)
	}
	return Message{Subject: subject, Body: b.String()}
}
