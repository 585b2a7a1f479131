// Package prompt renders the fixed instruction template sent to the
// generative backend. The template text and the failure sentinels are part of
// the output contract and must not be reworded.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"SecurityBriefing/internal/domain"
)

const (
	// SentinelNoItems is persisted when aggregation yields zero items; the
	// backend is never called in that case.
	SentinelNoItems = `<article><h1>보안 브리핑 생성 실패</h1><p>정보 부족: 수집된 뉴스가 없습니다.</p></article>`

	// SentinelEmptyResponse is persisted when the backend returns blank text.
	SentinelEmptyResponse = `<article><h1>보안 브리핑 생성 실패</h1><p>정보 부족: 모델 응답이 비어 있습니다.</p></article>`

	// sentinelFewEvents is what the model itself is instructed to emit when
	// fewer than three qualifying events exist.
	sentinelFewEvents = `<article><h1>보안 브리핑 생성 실패</h1><p>정보 부족: 유효 사건 수가 기준(3개)을 충족하지 못했습니다.</p></article>`

	sentinelPrefix = `<article><h1>보안 브리핑 생성 실패</h1>`

	truncationMarker = "\n...[TRUNCATED]..."

	// Prior-day content is referenced only as this constant placeholder.
	yesterdayPlaceholder = "없음"
)

// IsSentinel reports whether the stored HTML is one of the fixed failure
// fragments rather than a real briefing.
func IsSentinel(html string) bool {
	return strings.HasPrefix(strings.TrimSpace(html), sentinelPrefix)
}

// Build renders the full prompt: instruction rules, the numbered item blocks
// with per-item truncation, and the literal HTML output template.
func Build(items []domain.Item, maxContentChars int) string {
	var sb strings.Builder

	sb.WriteString(promptRules)

	sb.WriteString("============================================================\n")
	sb.WriteString("[전날 브리핑(임의 문자열, 근거로 사용 금지)]\n")
	sb.WriteString(yesterdayPlaceholder)
	sb.WriteString("\n============================================================\n\n")

	sb.WriteString("============================================================\n")
	sb.WriteString("[오늘 뉴스 item 목록 — 이 데이터만이 사실 근거다]\n")
	sb.WriteString("각 item 형식: [번호] title | link | publishedAt | source | content\n")
	sb.WriteString("============================================================\n")
	for i, item := range items {
		writeItem(&sb, i+1, item, maxContentChars)
	}
	sb.WriteString("\n")

	sb.WriteString(outputRules)
	sb.WriteString("BEGIN_HTML_TEMPLATE\n")
	sb.WriteString(htmlTemplateOpen)
	for section := 1; section <= 3; section++ {
		fmt.Fprintf(&sb, htmlTemplateSection, section)
	}
	sb.WriteString(htmlTemplateClose)
	sb.WriteString("END_HTML_TEMPLATE\n\n")

	sb.WriteString(finalInstruction)

	return sb.String()
}

func writeItem(sb *strings.Builder, index int, item domain.Item, maxContentChars int) {
	content := item.Content
	if runes := []rune(content); len(runes) > maxContentChars {
		content = string(runes[:maxContentChars]) + truncationMarker
	}

	published := ""
	if item.PublishedAt != nil {
		published = item.PublishedAt.UTC().Format(time.RFC3339)
	}

	fmt.Fprintf(sb, "[%d]\n", index)
	fmt.Fprintf(sb, "source: %s\n", item.Source)
	fmt.Fprintf(sb, "title: %s\n", item.Title)
	fmt.Fprintf(sb, "url: %s\n", item.Link)
	fmt.Fprintf(sb, "publishedAt(UTC): %s\n", published)
	fmt.Fprintf(sb, "content:\n%s\n", content)
	sb.WriteString("----\n\n")
}

const promptRules = `너는 베테랑 보안 뉴스 편집자이자 보안 실무자를 위한 브리핑 작성 전문가다.
목표: 아래 '오늘 뉴스 item'만을 근거로, 사람이 읽기 좋은 블로그용 단일 HTML(<article>) 문서를 생성하라.

[최우선 규칙: 환각 절대 금지]
- 입력 데이터(item)의 title, content에 명시되지 않은 사실을 절대 생성하지 마라.
- CVE 번호, CVSS 점수, "actively exploited", "in-the-wild", 공격 주체(APT/국가), 기한, 기관 지시는
  반드시 item content에 명시된 경우에만 사용하라.
- 기사에 명시되지 않은 정보는 추정하거나 보완하지 말고 반드시 다음 중 하나로 표기하라:
  "기사에 명시 없음", "확인 불가", "정보 부족"

[데이터 사용 제한 규칙]
- content가 비어 있거나, 의미 있는 보안 설명이 없는 item은 분석 대상에서 제외하라.
- 제목만 있고 본문(content)이 없는 항목은 사용하지 마라.
- 단순 공지/이벤트 안내/채용/행사/마케팅성 글은 제외하라.

[사건(Event) 단위 강제]
- 각 Top 사건은 반드시 하나의 '사건(Event)'을 설명해야 한다.
- 사건은 아래 중 하나로 식별 가능해야 한다(최소 1개 충족, 없으면 Top에서 제외):
  • CVE 번호
  • 특정 제품명 + 취약점 유형(예: Product X RCE)
  • 공격 캠페인 또는 위협 그룹/작전명
- "~전반", "~동향", "~위협 증가" 같은 포괄적/추상적 사건 제목은 금지한다.

[출력 대상 및 수량]
- Top 3 사건만 출력하라.
- 유효 사건이 3개 미만이면: HTML 대신 아래 실패 HTML만 출력하라(다른 텍스트 금지):
  ` + sentinelFewEvents + `

[HTML 안전 규칙]
- 출력은 반드시 <article> 하나로 감싼 '단일 HTML 문서'여야 한다.
- Markdown, 코드펜스, 설명 문장, 서문/후기 텍스트를 절대 출력하지 마라.
- 허용 태그: article, section, header, h1, h2, h3, p, ul, ol, li, a, strong, em, code
- 금지: script, style, iframe, img, 모든 on* 이벤트 속성
- 링크(<a>)는 반드시 오늘 item의 URL만 사용하며, target="_blank" rel="noopener noreferrer"를 포함하라.

[언어]
- 전체 출력은 한국어로 작성하되, 아래 전문 용어는 번역하지 말고 원어를 유지하라:
  CVE, CVSS, RCE, LPE, APT, Zero-day, Exploit, Patch, Mitigation,
  Phishing, Malware, Ransomware, Supply Chain, C2, IOC

`

const outputRules = `[최종 HTML 구조 — 순서/태그 변경 금지]
- 아래 템플릿을 그대로 복사하여 출력하라.
- 태그, 헤딩 문구, 섹션 순서, 번호(1/2/3/4), 문장 구조를 절대 변경하지 마라.
- 너는 {중괄호} 안의 값만 채워라.

!!! 절대 규칙 !!!
- 아래 템플릿의 태그/문구/번호/섹션 순서를 한 글자도 변경하지 마라.
- 관련 링크는 5개 이하로 고정해라, header의 h1은 오늘의 보안 브리핑 고정이다.
- 동의어로 바꾸기 금지.
- 출력은 템플릿을 그대로 복사하고 { } 안의 값만 채운 HTML만 출력하라.

`

const htmlTemplateOpen = `<article>
  <header>
    <h1>오늘의 보안 브리핑 (Top 3 사건)</h1>
    <p>1) {1번 사건 한 문장 요약}</p>
    <p>2) {2번 사건 한 문장 요약}</p>
    <p>3) {3번 사건 한 문장 요약}</p>
  </header>
`

const htmlTemplateSection = `  <section>
    <h2>%d. {사건 제목}</h2>
    <p><strong>개요:</strong> {2문장 이내 요약}</p>
    <h3>1. 주요내용</h3>
    <ul>
      <li>{사실 기반 리스트}</li>
      <li>{사실 기반 리스트}</li>
      <li>{사실 기반 리스트}</li>
    </ul>
    <h3>2. 권고 조치사항</h3>
    <ol>
      <li>{행동 가능한 항목}</li>
      <li>{행동 가능한 항목}</li>
      <li>{행동 가능한 항목}</li>
    </ol>
    <h3>3. 취약점 정보</h3>
    <ul>
      <li><strong>CVE:</strong> {번호 또는 "기사에 명시 없음"}</li>
      <li><strong>CVSS:</strong> {점수 또는 "기사에 명시 없음"}</li>
    </ul>
    <h3>4. 관련 링크</h3>
    <ul>
      <li><a href="{URL}" target="_blank" rel="noopener noreferrer">{URL}</a></li>
    </ul>
  </section>
`

const htmlTemplateClose = `</article>
`

const finalInstruction = `최종 출력 규칙: BEGIN_HTML_TEMPLATE와 END_HTML_TEMPLATE 사이의 HTML만 출력하라. 다른 텍스트는 절대 출력하지 마라.
이제 오늘 item만 근거로 위 템플릿의 { } 값만 채워서 출력하라.
`
