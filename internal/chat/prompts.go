package chat

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorPrefix starts the placeholder fragment a failed stream yields.
const ErrorPrefix = "错误: "

// QuestionCount is the number of follow-up questions FollowUpQuestions returns.
const QuestionCount = 3

// DefaultQuestions pad or replace the generated follow-up questions.
var DefaultQuestions = []string{
	"这个概念还有哪些深入的内容需要了解？",
	"能结合实际项目详细说明一下吗？",
	"有什么常见的问题需要注意？",
}

const genericSystemPrompt = `你是一个专业的教育辅导助手，擅长解答学习过程中的各类问题。
请用清晰、专业的中文回答用户的问题。如果涉及代码或专业概念，请提供详细的解释和示例。`

const topicSystemPrompt = `你是一个专业的教育辅导助手，专注于%[1]s相关内容的指导。
你将帮助学生理解和掌握这个主题的各个方面。

请注意：
1. 使用清晰、专业的中文回答问题
2. 结合实际案例进行解释
3. 循序渐进，由浅入深
4. 如涉及代码，提供详细注释
5. 鼓励学生思考和实践

你的目标是帮助学生：
1. 深入理解%[1]s的核心概念
2. 掌握相关的实践技能
3. 培养独立解决问题的能力
4. 建立系统性的知识体系`

const followUpSystemPrompt = `你是一个专注于%s的教育辅导专家。
请根据学生的学习对话历史和当前主题，生成3个最相关的追加提问。
这些问题应该：
1. 帮助学生更深入地理解主题
2. 体现渐进式学习
3. 引导学生思考实际应用
4. 关注重要的细节和原理
请直接返回3个问题，每行一个，不要添加序号、空行或其他标记。`

const followUpUserPrompt = `
当前主题：%s

对话历史：
%s

请生成3个相关的追加提问，帮助学生更深入地理解这个主题。每个问题必须是完整的句子。
`

// SystemPrompt returns the tutor system prompt for topic; an empty topic
// gets the generic prompt.
func SystemPrompt(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return genericSystemPrompt
	}
	return fmt.Sprintf(topicSystemPrompt, topic)
}

// FormatHistory renders a conversation as "学生：" / "助手：" lines.
func FormatHistory(history []Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := "助手"
		if m.Role == RoleUser {
			role = "学生"
		}
		lines = append(lines, role+"："+m.Content)
	}
	return strings.Join(lines, "\n")
}

var listMarkerRe = regexp.MustCompile(`^(?:\d+\s*[.、)）:：]|[-*•])\s*`)

// normalizeQuestions splits a model reply into exactly QuestionCount
// questions, dropping blank lines and list markers and padding with
// DefaultQuestions.
func normalizeQuestions(text string) []string {
	var questions []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		q := strings.TrimSpace(listMarkerRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	for len(questions) < QuestionCount {
		questions = append(questions, DefaultQuestions[len(questions)])
	}
	return questions[:QuestionCount]
}

func defaultQuestions() []string {
	out := make([]string, len(DefaultQuestions))
	copy(out, DefaultQuestions)
	return out
}
