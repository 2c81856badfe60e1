package service

import (
	"net/url"
	"strings"
)

// ShareText is the message prefilled in social share dialogs.
const ShareText = "ลงทะเบียนกับ Truvamate ผ่านลิงก์ของฉันและรับส่วนลดพิเศษ!"

type ShareLinks struct {
	Link     string `json:"link"`
	Facebook string `json:"facebook"`
	Twitter  string `json:"twitter"`
	Line     string `json:"line"`
}

// BuildShareLinks returns the landing link for code and its social share URLs.
func BuildShareLinks(publicURL, code string) ShareLinks {
	link := strings.TrimRight(publicURL, "/") + "/login?ref=" + escape(code)
	return ShareLinks{
		Link:     link,
		Facebook: "https://www.facebook.com/sharer/sharer.php?u=" + escape(link),
		Twitter:  "https://twitter.com/intent/tweet?text=" + escape(ShareText) + "&url=" + escape(link),
		Line:     "https://social-plugins.line.me/lineit/share?url=" + escape(link),
	}
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
