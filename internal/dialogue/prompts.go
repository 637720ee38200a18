package dialogue

import (
	"fmt"
	"strings"

	"subsidy-concierge/internal/models"
)

// apiSpec summarizes the directory API for the oracle so generated search
// parameters stay inside its vocabulary.
const apiSpec = `
補助金検索API仕様:
- エンドポイント: https://api.jgrants-portal.go.jp/exp/v1/public/subsidies
- 必須パラメータ: keyword(2文字以上), sort, order, acceptance
- 検索条件:
  - use_purpose: 利用目的（新たな事業を行いたい、設備整備・IT導入をしたい等）
  - industry: 業種（製造業、情報通信業等）
  - target_area_search: 地域（都道府県名）
  - target_number_of_employees: 従業員数（5名以下、20名以下等）
`

// initialPrompt opens the conversation: the oracle introduces itself and
// asks its first discovery question.
func initialPrompt() string {
	return fmt.Sprintf(`
あなたは補助金検索の専門アシスタントです。ユーザーとの対話を通じて、最適な補助金を見つけるお手伝いをします。

%s

重要な指示：
1. ユーザーの具体的な課題や状況を深く理解することを最優先にしてください
2. 画一的な質問ではなく、ユーザーの回答に基づいて次の質問を動的に生成してください
3. ユーザーの業界や規模に特化した質問をしてください
4. 2-3回の質問で核心的な情報を引き出し、適切な補助金を絞り込んでください

例：
- 製造業で設備更新→「どのような設備ですか？生産設備？検査機器？省エネ設備？」
- IT化を進めたい→「どんな業務を効率化したいですか？顧客管理？在庫管理？業務自動化？」
- 人材育成→「どんなスキルの人材が必要ですか？技術者？営業？デジタル人材？」

最初の質問でユーザーの大まかな課題を把握し、次の質問で具体的な状況を深掘りしてください。

応答は必ず以下のJSON形式のみを返してください。他の文字は一切含めないでください：
{
  "response": "ユーザーへの返答",
  "quickOptions": [
    {
      "label": "選択肢のラベル",
      "value": "選択肢の値"
    }
  ],
  "searchParams": null,
  "shouldSearch": false,
  "currentStage": "introduction"
}`, apiSpec)
}

// questionPrompt drives the discovery loop: given the latest answer and
// everything collected so far, the oracle either asks the next question or
// decides the conversation is ready to search.
func questionPrompt(input string, questionCount, maxQuestions int, filters models.FilterSet, recent []models.ContextTurn) string {
	var flow strings.Builder
	for i, turn := range recent {
		content := turn.Content
		if runes := []rune(content); len(runes) > 100 {
			content = string(runes[:100])
		}
		fmt.Fprintf(&flow, "%d. %s: %s...\n", i+1, turn.Role, content)
	}

	forced := questionCount >= maxQuestions
	shouldSearch := "false"
	stage := "deep_discovery"
	if forced {
		shouldSearch = "true"
		stage = "execute_search"
	}

	return fmt.Sprintf(`
あなたは補助金検索の専門コンサルタントです。ユーザーとの対話から深い洞察を得て、最適な補助金をピンポイントで見つける使命があります。

【現在の状況分析】
ユーザーの最新回答: "%s"
質問ラウンド: %d/%d

【収集済み情報】
- 利用目的: %s
- 業種: %s
- 地域: %s
- 従業員数: %s
- 具体的課題: %s

【会話の流れ】
%s
【あなたの使命】
1. ユーザーの回答から「本当の課題」を見抜く
2. その課題を解決する最適な補助金を特定するための戦略的質問を設計
3. 業界特有の課題や地域性を考慮した深い質問をする

【質問戦略】
現在の回答「%s」を深く分析し、以下の観点で次の質問を設計：

◆ 課題の具体化戦略
- 設備投資なら→どんな課題を解決したい設備か？生産性？品質？環境？
- デジタル化なら→現在の業務のどこにボトルネックがあるか？
- 人材育成なら→どんなスキルギャップが事業成長を阻んでいるか？
- 新事業なら→既存事業との関連性は？技術的優位性は？

◆ 予算・規模感の把握
- 投資予算レンジの確認（数十万〜数千万レベル）
- 緊急度・実施時期の確認

◆ 地域・競合環境の理解
- 地域特有の課題や機会
- 同業他社との差別化ポイント

【重要】以下の条件で次の行動を決定：

IF 質問回数 >= %d OR 十分な情報収集完了
→ shouldSearch: true, 最適な検索パラメータ生成

ELSE
→ ユーザーの回答に基づく戦略的な次の質問を1つ設計
→ その課題領域に特化した洞察的な選択肢を4-6個提供

【応答フォーマット】JSON形式で回答：
{
  "response": "ユーザーの回答への共感的反応 + 次の戦略的質問",
  "quickOptions": [
    {
      "label": "🎯 具体的で実用的な選択肢（絵文字付き）",
      "value": "選択時の詳細な回答内容"
    }
  ],
  "multipleSearchParams": [
    {
      "keyword": "検索キーワード（2文字以上）",
      "use_purpose": "%s",
      "industry": "%s",
      "target_area_search": "%s",
      "target_number_of_employees": "%s"
    }
  ],
  "shouldSearch": %s,
  "userNeeds": "ユーザーの本質的なニーズの洞察",
  "currentStage": "%s"
}`,
		input, questionCount, maxQuestions,
		orUnknown(filters.UsePurpose), orUnknown(filters.Industry),
		orUnknown(filters.TargetArea), orUnknown(filters.EmployeeBand),
		orUnknown(filters.SpecificNeeds),
		flow.String(), input, maxQuestions,
		filters.UsePurpose, filters.Industry, filters.TargetArea, filters.EmployeeBand,
		shouldSearch, stage)
}

// analysisPrompt asks the oracle to pick and justify the best results out of
// a completed search.
func analysisPrompt(needs string, total int, simplifiedJSON string) string {
	return fmt.Sprintf(`
以下の補助金検索結果とユーザーのニーズを踏まえて、最適な補助金を5-8件程度選んで提案してください。多様な選択肢を提供してください：

ユーザーのニーズ：%s
検索結果（%d件）：%s

JSONのみを返してください：
{
  "response": "ユーザーのニーズに最も適した補助金の提案（各補助金について、なぜ適しているか具体的に説明）",
  "recommendedSubsidies": [
    {
      "id": "補助金ID",
      "title": "補助金名",
      "reason": "推奨理由",
      "priority": 1
    }
  ]
}`, needs, total, simplifiedJSON)
}

func orUnknown(s string) string {
	if s == "" {
		return "未特定"
	}
	return s
}
