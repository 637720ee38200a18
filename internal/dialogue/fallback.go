package dialogue

import (
	"fmt"
	"strings"
	"time"

	"subsidy-concierge/internal/models"
)

// Canned replies used when the oracle is unreachable or returns an
// unusable payload. The conversation must stay functional without it.

const fallbackGreetingMessage = "🎯 **補助金検索AI コンサルタント**へようこそ！\n\n私は、あなたのビジネス課題を深く理解し、最適な補助金を見つける専門アシスタントです。\n\n**まず、現在のビジネス状況について教えてください：**\n\n📋 どのような課題を解決したいですか？具体的な状況を選択いただければ、あなたに最適化された質問と補助金をご提案します。"

const parseFailureMessage = "AIからの応答を正しく解析できませんでした。申し訳ありませんが、もう一度試していただくか、違う聞き方をしてみてください。"

const noResultsMessage = "💡 申し訳ございません。現在の条件では補助金が見つかりませんでした。\n\n以下のような理由が考えられます：\n- 検索条件が限定的すぎる\n- 該当する補助金の募集期間外\n- 地域や業種の制約\n\n条件を調整して再検索しましょう。"

const searchFailureMessage = "申し訳ございません。補助金検索でエラーが発生しました。しばらく待ってから、もう一度お試しください。"

func fallbackGreetingOptions() []models.QuickOption {
	return []models.QuickOption{
		{Label: "💰 事業資金・運転資金の確保が課題", Value: "事業の成長のために資金調達や運転資金の確保が課題となっています"},
		{Label: "🏭 生産設備・機械の更新・導入", Value: "生産効率向上のため設備の更新や新しい機械の導入を検討しています"},
		{Label: "💻 業務のデジタル化・IT化推進", Value: "業務効率化や競争力向上のためDXやIT化を進めたいと考えています"},
		{Label: "👥 人材確保・スキルアップ・組織強化", Value: "人材不足の解決や既存社員のスキルアップ、組織体制の強化が必要です"},
		{Label: "🔬 新商品・新技術の研究開発", Value: "競争力向上のため新商品開発や技術革新に取り組みたいです"},
		{Label: "🌍 新市場開拓・販路拡大・海外展開", Value: "売上拡大のため新しい市場開拓や販路拡大を目指しています"},
		{Label: "🌱 環境対策・省エネ・持続可能経営", Value: "環境負荷削減や省エネ、持続可能な経営への転換を考えています"},
		{Label: "🏢 事業承継・新規創業・第二創業", Value: "事業承継の準備や新規創業、既存事業からの転換を検討しています"},
		{Label: "💭 複数の課題があり相談したい", Value: "複数の課題を抱えており、どこから手をつけるべきか相談したいです"},
	}
}

// relaxationOptions are offered after an empty search so the user can widen
// the criteria.
func relaxationOptions() []models.QuickOption {
	return []models.QuickOption{
		{Label: "🔄 条件を緩和して再検索", Value: "検索条件を緩和して再検索したいです"},
		{Label: "🏢 業種を変更して検索", Value: "業種を変更して検索したいです"},
		{Label: "📍 地域を広げて検索", Value: "地域を広げて検索したいです"},
		{Label: "💰 予算規模を変更して検索", Value: "予算規模を変更して検索したいです"},
		{Label: "❓ 補助金の探し方を教えて", Value: "効果的な補助金の探し方について教えてください"},
	}
}

// nextActionOptions follow a successful result presentation.
func nextActionOptions() []models.QuickOption {
	return []models.QuickOption{
		{Label: "📋 申請方法を詳しく知りたい", Value: "推奨された補助金の申請方法について教えてください"},
		{Label: "💰 他の補助金も探したい", Value: "他の補助金も探してください"},
		{Label: "📊 補助金の比較をしたい", Value: "提案された補助金を比較して説明してください"},
		{Label: "❓ 補助金について質問がある", Value: "補助金について質問があります"},
		{Label: "📅 申請スケジュールを確認したい", Value: "申請スケジュールについて教えてください"},
	}
}

// formatAnalyzedResults renders the oracle's recommendations followed by the
// remaining relevant results.
func formatAnalyzedResults(analysis *analysisPayload, results []models.RankedSubsidy) string {
	var b strings.Builder
	b.WriteString(analysis.Response)
	b.WriteString("\n\n")

	byID := make(map[string]models.RankedSubsidy, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	recommended := make(map[string]bool, len(analysis.RecommendedSubsidies))
	for i, rec := range analysis.RecommendedSubsidies {
		subsidy, ok := byID[rec.ID]
		if !ok {
			continue
		}
		recommended[rec.ID] = true
		fmt.Fprintf(&b, "\n【推奨%d】%s\n", i+1, subsidy.Title)
		fmt.Fprintf(&b, "📍 %s\n", rec.Reason)
		writeSubsidyDetails(&b, subsidy)
	}

	var others []models.RankedSubsidy
	for _, r := range results {
		if !recommended[r.ID] {
			others = append(others, r)
		}
	}
	if len(others) > 8 {
		others = others[:8]
	}
	if len(others) > 0 {
		b.WriteString("\n\n【その他の関連補助金】\n")
		for i, subsidy := range others {
			fmt.Fprintf(&b, "\n%d. %s\n", i+1, subsidy.Title)
			writeSubsidyDetails(&b, subsidy)
		}
	}

	return b.String()
}

// formatSimpleResults is the presentation used when analysis fails: just the
// top results with their facts.
func formatSimpleResults(results []models.RankedSubsidy) string {
	top := results
	if len(top) > 5 {
		top = top[:5]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d件の補助金が見つかりました。\n", len(results))
	for i, subsidy := range top {
		fmt.Fprintf(&b, "\n【%d】%s\n", i+1, subsidy.Title)
		writeSubsidyDetails(&b, subsidy)
	}
	return b.String()
}

func writeSubsidyDetails(b *strings.Builder, s models.RankedSubsidy) {
	fmt.Fprintf(b, "💰 補助額上限：%s\n", formatAmount(s.MaxLimit))
	fmt.Fprintf(b, "📅 募集期間：%s ～ %s\n", formatDate(s.AcceptStart), formatDate(s.AcceptEnd))
	fmt.Fprintf(b, "🏢 対象：%s\n", orTBC(s.EmployeeBand))
	fmt.Fprintf(b, "🔗 詳細：%s\n", s.DetailURL)
}

func formatAmount(limit int64) string {
	if limit <= 0 {
		return "要確認"
	}
	return groupDigits(limit) + "円"
}

// groupDigits inserts thousands separators, e.g. 10000000 → 10,000,000.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "要確認"
	}
	return t.Format("2006/01/02")
}

func orTBC(s string) string {
	if s == "" {
		return "要確認"
	}
	return s
}
