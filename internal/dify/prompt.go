package dify

import (
	"fmt"
	"strings"

	"github.com/sqlreview/pkg/models"
)

// promptHeader is the fixed review instruction sent ahead of every segment.
// The workflow answers in whichever language it prefers, so the instruction
// carries both.
const promptHeader = `你是資深的資料庫審查助理。請審查以下內容中的 SQL 與資料庫物件變更,找出命名、語法與安全性問題。
You are a senior database review assistant. Review the SQL and database object changes below for naming, syntax and safety problems.

請僅以 JSON 回覆,格式如下 / Reply with JSON only, in this shape:
{"issues": [{"rule_id": "...", "severity": "...", "message": "...", "object": "...", "line": 1, "snippet": "...", "recommendation": "..."}]}
若未發現問題,請回覆 / If there is nothing to report, reply: {"issues": []}`

// BuildPrompt renders the query for one segment: the fixed header, the
// selection descriptor when the caller reviewed a sub-range, the chunk
// position, then the segment text verbatim inside a fence.
func BuildPrompt(segment models.Segment, selection *models.Selection) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")
	if selection != nil {
		b.WriteString(SelectionDescriptor(*selection))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "以下為第 %d/%d 段 / This is part %d of %d.\n", segment.Index, segment.Total, segment.Index, segment.Total)
	b.WriteString("```\n")
	b.WriteString(segment.Text)
	if !strings.HasSuffix(segment.Text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// SelectionDescriptor renders the human-readable range note included when the
// review covers a selection rather than a whole file.
func SelectionDescriptor(sel models.Selection) string {
	desc := fmt.Sprintf("審查範圍 / Selection: lines %d-%d, columns %d-%d, %d lines",
		sel.StartLine, sel.EndLine, sel.StartColumn, sel.EndColumn, sel.LineCount())
	if sel.Label != "" {
		desc += fmt.Sprintf(" (%s)", sel.Label)
	}
	return desc
}
