package summarizer

import (
	"fmt"
	"strings"
	"time"

	"meditalk-go/internal/model"
)

// symptomKeywords 是症状匹配的固定关键词表。
var symptomKeywords = []string{"pain", "headache", "fever", "nausea", "fatigue", "cough", "dizziness"}

// 未命中任何关键词时的固定占位文案。
const (
	symptomsNotSpecified = "Not specified"
	diagnosisPlaceholder = "Under evaluation - follow-up recommended"
	medicationMentioned  = "Prescribed medication mentioned"
	medicationsNone      = "No medications prescribed in this consultation"
	followUpPlaceholder  = "Schedule follow-up appointment in 1-2 weeks if symptoms persist"
)

// keywordExtractor 基于大小写不敏感的子串匹配生成小结。
// 匹配始终针对消息原文，与是否翻译无关。
type keywordExtractor struct{}

// NewKeywordExtractor 创建关键词匹配的提取策略。
func NewKeywordExtractor() Extractor {
	return keywordExtractor{}
}

// Extract 对消息集合做一遍确定性的关键词扫描并拼装小结文本。
func (keywordExtractor) Extract(conv *model.ConversationDetail, messages []model.MessageView, now time.Time) Extraction {
	return Extraction{
		Content:         buildContent(conv, messages, now),
		Symptoms:        extractSymptoms(messages),
		Diagnosis:       diagnosisPlaceholder,
		Medications:     extractMedications(messages),
		FollowUpActions: followUpPlaceholder,
	}
}

// extractSymptoms 按首次出现顺序收集命中的关键词，去重后首字母大写并以逗号连接。
func extractSymptoms(messages []model.MessageView) string {
	var found []string
	seen := make(map[string]bool)
	for _, msg := range messages {
		text := strings.ToLower(msg.OriginalText)
		for _, keyword := range symptomKeywords {
			if strings.Contains(text, keyword) && !seen[keyword] {
				seen[keyword] = true
				found = append(found, strings.ToUpper(keyword[:1])+keyword[1:])
			}
		}
	}
	if len(found) == 0 {
		return symptomsNotSpecified
	}
	return strings.Join(found, ", ")
}

// extractMedications 为每条提到 medication 的消息记一条固定文案。
// 不枚举具体药品名。
func extractMedications(messages []model.MessageView) string {
	var mentions []string
	for _, msg := range messages {
		if strings.Contains(strings.ToLower(msg.OriginalText), "medication") {
			mentions = append(mentions, medicationMentioned)
		}
	}
	if len(mentions) == 0 {
		return medicationsNone
	}
	return strings.Join(mentions, ", ")
}

// buildContent 生成自由文本小结：头部（患者、医生、日期）、最多前 5 条消息的
// 摘录（每条截取原文前 100 个字符）以及两段固定的建议文案。
func buildContent(conv *model.ConversationDetail, messages []model.MessageView, now time.Time) string {
	var b strings.Builder

	b.WriteString("Consultation Summary\n\n")
	fmt.Fprintf(&b, "Patient: %s %s\n", conv.PatientFirstName, conv.PatientLastName)
	fmt.Fprintf(&b, "Doctor: %s %s\n", conv.DoctorFirstName, conv.DoctorLastName)
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("January 2, 2006"))

	b.WriteString("Overview:\n")
	b.WriteString("This consultation covered the patient's health concerns and treatment plan.\n\n")

	b.WriteString("Key Discussion Points:\n")
	for i, msg := range messages {
		if i >= 5 {
			break
		}
		text := msg.OriginalText
		if runes := []rune(text); len(runes) > 100 {
			text = string(runes[:100])
		}
		fmt.Fprintf(&b, "\n%d. %s: %s...", i+1, msg.SenderFirstName, text)
	}

	b.WriteString("\n\nRecommendations:\n")
	b.WriteString("- Continue monitoring symptoms\n")
	b.WriteString("- Follow prescribed medication regimen\n")
	b.WriteString("- Schedule follow-up appointment if symptoms persist\n\n")

	b.WriteString("Next Steps:\n")
	b.WriteString("- Patient to report any changes in condition\n")
	b.WriteString("- Review progress in next consultation\n")

	return b.String()
}
