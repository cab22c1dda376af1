package bankcard

// Issuer BIN prefixes for cards seen in claim intake. Lookup tries the
// longest prefix first (8, then 7, then 6 digits).
var binTable = map[string]string{
	// Rural credit unions
	"621779": "贵州农信",
	"623077": "贵州农信",
	"621027": "云南农信",
	"622127": "云南农信",
	"623127": "云南农信",
	"621737": "四川农信",
	"622137": "四川农信",
	"623137": "四川农信",

	// State-owned banks
	"621799": "中国工商银行",
	"622202": "中国工商银行",
	"622208": "中国工商银行",
	"620522": "中国工商银行",
	"622848": "中国农业银行",
	"622841": "中国农业银行",
	"621660": "中国银行",
	"621661": "中国银行",
	"621663": "中国银行",
	"622260": "交通银行",
	"621288": "中国建设银行",
	"622288": "中国建设银行",
	"622700": "中国建设银行",
	"601388": "中国建设银行",

	// Joint-stock banks
	"621485": "招商银行",
	"622588": "招商银行",
	"620527": "招商银行",

	// Postal savings
	"621088": "中国邮政储蓄银行",
	"622150": "中国邮政储蓄银行",
	"622188": "中国邮政储蓄银行",
	"625188": "中国邮政储蓄银行",
}

// lookupBIN resolves an issuer from the card number prefix, longest first
func lookupBIN(cardNumber string) string {
	for _, width := range []int{8, 7, 6} {
		if len(cardNumber) < width {
			continue
		}
		if name, ok := binTable[cardNumber[:width]]; ok {
			return name
		}
	}
	return ""
}
