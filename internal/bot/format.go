package bot

import (
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/p4udeals/aliexpress-deals-bot/internal/aliexpress"
	"github.com/p4udeals/aliexpress-deals-bot/internal/offers"
	"github.com/p4udeals/aliexpress-deals-bot/internal/utils"
)

// rtlMark forces right-to-left rendering for mixed Arabic/Latin lines.
const rtlMark = "‏"

const maxTitleRunes = 250

var arabicCurrencyNames = map[string]string{
	"USD": "دولار أمريكي",
	"SAR": "ريال سعودي",
	"AED": "درهم إماراتي",
	"EGP": "جنيه مصري",
	"EUR": "يورو",
	"GBP": "جنيه إسترليني",
	"CNY": "يوان صيني",
	"ILS": "شيكل إسرائيلي",
}

const welcomeMessage = "👋 مرحبًا بك في بوت خصومات علي إكسبريس! 🛍️\n\n" +
	"🔍 <b>كيفية استخدام البوت:</b>\n" +
	"1️⃣ انسخ رابط منتج من موقع AliExpress 📋\n" +
	"2️⃣ أرسل الرابط إلى هذا البوت 📤\n" +
	"3️⃣ سيقوم البوت تلقائيًا بإنشاء روابط الخصم ✨\n" +
	"🔗 <b>أنواع الروابط المدعومة:</b>\n" +
	"• روابط المنتجات العادية من AliExpress 🌐\n" +
	"• روابط AliExpress المختصرة 🔄\n\n" +
	"🚀 أرسل أي رابط منتج الآن لتجربة البوت! 🎁"

const noLinkMessage = "📭 الرجاء إرسال رابط منتج من موقع AliExpress حتى نتمكن من إنشاء روابط الخصم 💡"

const noURLsMessage = "❌ لم يتم العثور على أي روابط AliExpress في رسالتك. الرجاء إرسال رابط منتج صحيح 🔗"

const noProductsMessage = "❌ لم نتمكن من العثور على أي روابط منتجات صالحة من AliExpress في هذه الرسالة ❌"

// formatReply renders the HTML message body for one product: title, price
// line, then one line per offer in display order.
func formatReply(reply Reply, offerSet []offers.Offer) string {
	product := reply.Product

	var lines []string
	title := html.EscapeString(utils.TruncateRunes(product.Title, maxTitleRunes))
	lines = append(lines, "<b>"+rtlMark+title+"</b>")

	currency := product.Currency
	if arabic, ok := arabicCurrencyNames[currency]; ok {
		currency = arabic
	}

	switch {
	case product.Source == aliexpress.SourceAPI && product.Price != "":
		price := strings.TrimSpace(product.Price + " " + currency)
		lines = append(lines, "\n<b>السعر بعد الخصم:</b> "+price+"\n")
	case product.Source == aliexpress.SourceScraped:
		lines = append(lines, "\n<b>السعر بعد الخصم:</b> غير متوفر\n")
	default:
		lines = append(lines, "\n<b>تفاصيل المنتج غير متوفرة</b>\n")
	}

	lines = append(lines, "<b>العروض المتاحة:</b>")
	for _, offer := range offerSet {
		if link := reply.Links[offer.Key]; link != "" {
			lines = append(lines, offer.Label+`: <a href="`+link+`">اضغط هنا</a>`)
		} else {
			lines = append(lines, offer.Label+": ❌ فشل في الإنشاء")
		}
	}

	lines = append(lines, "\n<i>تم الإنشاء بواسطة P4uDeals</i>")
	return strings.Join(lines, "\n")
}

// formatNoOffers renders the fallback message when no offer produced a link.
func formatNoOffers(product aliexpress.Product) string {
	title := html.EscapeString(utils.TruncateRunes(product.Title, maxTitleRunes))
	return "<b>" + title + "</b>\n\nلم نتمكن من العثور على عروض لهذا المنتج حاليًا ❌"
}

func processingMessage(count int) string {
	return "⏳ جاري معالجة " + strconv.Itoa(count) + " منتج من AliExpress من رسالتك. الرجاء الانتظار..."
}

func errorMessage(productID string) string {
	return "حدث خطأ غير متوقع أثناء معالجة المنتج برقم " + productID + ". نأسف على ذلك 😢"
}

// inlineKeyboard is the static campaign keyboard attached to every reply.
func inlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Choice Day", "https://s.click.aliexpress.com/e/_oC3lwzi"),
			tgbotapi.NewInlineKeyboardButtonURL("Big Save", "https://s.click.aliexpress.com/e/_om2vvDO"),
		),
	)
}
