package app

import (
	"fmt"
	"strings"
)

func bulletList(texts []string) string {
	var b strings.Builder
	for _, t := range texts {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(t))
		b.WriteByte('\n')
	}
	return b.String()
}

func sentimentLabel(positive bool) string {
	if positive {
		return "긍정"
	}
	return "부정"
}

func headlinePrompt(positive bool, texts []string) string {
	return fmt.Sprintf(`다음은 최근 3개월 동안 작성된 %s 리뷰 목록입니다.
리뷰 전체를 대표하는 한 문장을 작성하세요.
- 다섯 단어 이하
- "~다"로 끝나는 평서문
- 문장 외의 설명은 쓰지 마세요

리뷰 목록:
%s`, sentimentLabel(positive), bulletList(texts))
}

func topicsPrompt(positive bool, topK int, texts []string) string {
	return fmt.Sprintf(`다음 %s 리뷰에서 가장 많이 언급된 의견 %d개를 찾으세요.
각 의견을 짧은 문장으로 요약하고 그 의견을 언급한 리뷰 수를 세세요.
JSON 배열로만 답하세요. 예: [{"content": "배송이 빠르다", "count": 3}]

리뷰 목록:
%s`, sentimentLabel(positive), topK, bulletList(texts))
}

func reportPrompt(department string, pos, neg []Topic) string {
	return fmt.Sprintf(`%s 부서의 최근 3개월 고객 리뷰 요약입니다.

긍정 의견:
%s

부정 의견:
%s

위 내용을 바탕으로 부서가 유지할 점과 개선할 점을 담은 짧은 보고서를 작성하세요.`,
		department, formatTopics(pos), formatTopics(neg))
}
