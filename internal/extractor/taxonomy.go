package extractor

// Taxonomy tables mapping free-form Japanese input onto the jGrants
// controlled vocabularies. Entries are ordered: the first matching entry
// wins, so more specific categories come before catch-alls.

type taxonomyEntry struct {
	Value    string
	Keywords []string
}

// ASCII keywords are stored lowercase and matched against lowercased input
// so "it導入" and "IT導入" both hit.
var purposeTaxonomy = []taxonomyEntry{
	{
		Value: "新たな事業を行いたい",
		Keywords: []string{
			"新規事業", "事業拡大", "事業転換", "多角化", "スタートアップ", "起業",
			"新分野", "新市場", "事業承継", "第二創業", "資金繰り", "運転資金",
			"人材採用", "人材確保", "組織強化", "体制構築",
		},
	},
	{
		Value: "設備整備・IT導入をしたい",
		Keywords: []string{
			"設備更新", "設備導入", "機械導入", "工場", "生産設備", "製造設備",
			"it導入", "dx", "デジタル", "システム", "ソフトウェア", "自動化",
			"効率化", "ict", "ai", "iot", "クラウド", "省エネ", "環境対策",
		},
	},
	{
		Value: "研究開発・実証事業を行いたい",
		Keywords: []string{
			"研究開発", "技術開発", "商品開発", "r&d", "新技術", "特許",
			"イノベーション", "実証実験", "プロトタイプ", "試作", "新製品",
		},
	},
	{
		Value: "販路拡大・海外展開をしたい",
		Keywords: []string{
			"販路拡大", "市場開拓", "新市場", "海外展開", "輸出", "国際化",
			"マーケティング", "営業強化", "ブランディング", "ec", "オンライン",
		},
	},
}

var industryTaxonomy = []taxonomyEntry{
	{
		Value: "製造業",
		Keywords: []string{
			"製造", "工場", "生産", "加工", "組立", "部品", "材料", "金属",
			"機械", "電子", "自動車", "化学", "食品", "繊維", "印刷",
		},
	},
	{
		Value: "情報通信業",
		Keywords: []string{
			"it", "システム", "ソフトウェア", "web", "アプリ", "プログラム",
			"通信", "データ", "ai", "dx", "クラウド", "サーバー",
		},
	},
	{
		Value: "卸売業，小売業",
		Keywords: []string{
			"小売", "卸売", "販売", "店舗", "ec", "通販", "ネットショップ",
			"商品", "仕入れ", "在庫", "流通", "pos",
		},
	},
	{
		Value: "建設業",
		Keywords: []string{
			"建設", "工事", "建築", "土木", "設計", "施工", "住宅",
			"リフォーム", "改修", "解体", "造成",
		},
	},
	{
		Value: "宿泊業，飲食サービス業",
		Keywords: []string{
			"飲食", "レストラン", "カフェ", "宿泊", "ホテル", "旅館",
			"観光", "料理", "接客", "サービス業",
		},
	},
	{
		Value: "医療，福祉",
		Keywords: []string{
			"医療", "介護", "福祉", "病院", "クリニック", "ケア",
			"看護", "リハビリ", "健康", "薬局",
		},
	},
	{
		Value: "教育，学習支援業",
		Keywords: []string{
			"教育", "学習", "研修", "塾", "スクール", "講座",
			"人材育成", "eラーニング", "セミナー",
		},
	},
	{
		Value: "運輸業，郵便業",
		Keywords: []string{
			"運送", "物流", "配送", "輸送", "倉庫", "宅配",
			"ロジスティクス", "トラック", "海運", "航空",
		},
	},
	{
		Value: "サービス業（他に分類されないもの）",
		Keywords: []string{
			"サービス", "コンサル", "専門", "技術サービス", "清掃",
			"警備", "メンテナンス", "修理", "相談",
		},
	},
}

var employeeTaxonomy = []taxonomyEntry{
	{Value: "5名以下", Keywords: []string{"5名以下", "5人以下", "個人事業", "フリーランス", "1人", "2人", "3人", "4人", "5人"}},
	{Value: "20名以下", Keywords: []string{"20名以下", "20人以下", "小規模", "10人", "15人", "20人"}},
	{Value: "50名以下", Keywords: []string{"50名以下", "50人以下", "30人", "40人", "50人"}},
	{Value: "100名以下", Keywords: []string{"100名以下", "100人以下", "中小企業", "60人", "80人", "100人"}},
	{Value: "300名以下", Keywords: []string{"300名以下", "300人以下", "200人", "250人", "300人"}},
}

// employeeBandFor buckets an exact headcount into the directory's bands.
// Counts over 300 fall outside every band and return empty.
func employeeBandFor(n int) string {
	switch {
	case n <= 5:
		return "5名以下"
	case n <= 20:
		return "20名以下"
	case n <= 50:
		return "50名以下"
	case n <= 100:
		return "100名以下"
	case n <= 300:
		return "300名以下"
	default:
		return ""
	}
}

// prefectureTable maps common short names onto the official prefecture
// names the directory filters on. Ordered so 北海道 is checked before the
// short names that could shadow it.
var prefectureTable = []struct {
	Alias string
	Name  string
}{
	{"北海道", "北海道"},
	{"青森", "青森県"}, {"岩手", "岩手県"}, {"宮城", "宮城県"}, {"秋田", "秋田県"}, {"山形", "山形県"}, {"福島", "福島県"},
	{"茨城", "茨城県"}, {"栃木", "栃木県"}, {"群馬", "群馬県"}, {"埼玉", "埼玉県"}, {"千葉", "千葉県"}, {"東京", "東京都"}, {"神奈川", "神奈川県"},
	{"新潟", "新潟県"}, {"富山", "富山県"}, {"石川", "石川県"}, {"福井", "福井県"}, {"山梨", "山梨県"}, {"長野", "長野県"}, {"岐阜", "岐阜県"},
	{"静岡", "静岡県"}, {"愛知", "愛知県"}, {"三重", "三重県"}, {"滋賀", "滋賀県"}, {"京都", "京都府"}, {"大阪", "大阪府"}, {"兵庫", "兵庫県"},
	{"奈良", "奈良県"}, {"和歌山", "和歌山県"}, {"鳥取", "鳥取県"}, {"島根", "島根県"}, {"岡山", "岡山県"}, {"広島", "広島県"}, {"山口", "山口県"},
	{"徳島", "徳島県"}, {"香川", "香川県"}, {"愛媛", "愛媛県"}, {"高知", "高知県"}, {"福岡", "福岡県"}, {"佐賀", "佐賀県"}, {"長崎", "長崎県"},
	{"熊本", "熊本県"}, {"大分", "大分県"}, {"宮崎", "宮崎県"}, {"鹿児島", "鹿児島県"}, {"沖縄", "沖縄県"},
}

// regionTable resolves region-block names to a representative prefecture,
// tried only after no direct prefecture match.
var regionTable = []struct {
	Region string
	Pref   string
}{
	{"関東", "東京都"},
	{"関西", "大阪府"},
	{"近畿", "大阪府"},
	{"九州", "福岡県"},
	{"東北", "宮城県"},
	{"中部", "愛知県"},
	{"北陸", "石川県"},
	{"中国", "広島県"},
	{"四国", "香川県"},
}
