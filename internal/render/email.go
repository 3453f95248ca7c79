// Package render builds the photo delivery email.
package render

import (
	"html"
	"strings"
)

// Subject is the fixed subject line of the photo delivery email.
const Subject = "Your Photobooth Pictures Are Ready!"

const (
	header = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">` +
		`<h1>Your Photos Are Ready!</h1>` +
		`<p>Thank you for using our photobooth! Here are your photos:</p>` +
		`<div style="margin: 20px 0;">`
	footer = `</div>` +
		`<p>Your photos will be available for download for the next 24 hours.</p>` +
		`<p>We hope you had a great time!</p>` +
		`</div>`

	imageOpen  = `<div style="margin: 10px 0;"><img src="`
	imageClose = `" style="max-width: 100%; border-radius: 8px;" /></div>`
)

// PhotoEmail renders one image block per URL, in input order, between the
// static header and footer.
func PhotoEmail(urls []string) string {
	var b strings.Builder
	b.Grow(len(header) + len(footer) + len(urls)*(len(imageOpen)+len(imageClose)+64))

	b.WriteString(header)
	for _, url := range urls {
		b.WriteString(ImageBlock(url))
	}
	b.WriteString(footer)

	return b.String()
}

// ImageBlock renders a single constrained-width image.
func ImageBlock(url string) string {
	return imageOpen + html.EscapeString(strings.TrimSpace(url)) + imageClose
}
