package ocr

// supportedLanguages is the closed allowlist of Tesseract-supported
// language codes consulted by ValidateLanguage (spec §4.4). This is a
// representative subset of the codes shipped with Tesseract's "fast"
// trained-data bundle, not the complete set of ~100 scripts Tesseract
// supports; extend it if a deployment installs additional trained data.
var supportedLanguages = map[string]bool{
	"afr": true, "amh": true, "ara": true, "asm": true, "aze": true,
	"bel": true, "ben": true, "bod": true, "bos": true, "bul": true,
	"cat": true, "ceb": true, "ces": true, "chi_sim": true, "chi_tra": true,
	"chr": true, "cym": true, "dan": true, "deu": true, "dzo": true,
	"ell": true, "eng": true, "enm": true, "epo": true, "est": true,
	"eus": true, "fas": true, "fin": true, "fra": true, "frk": true,
	"frm": true, "gle": true, "glg": true, "grc": true, "guj": true,
	"hat": true, "heb": true, "hin": true, "hrv": true, "hun": true,
	"hye": true, "iku": true, "ind": true, "isl": true, "ita": true,
	"ita_old": true, "jav": true, "jpn": true, "kan": true, "kat": true,
	"kat_old": true, "kaz": true, "khm": true, "kir": true, "kor": true,
	"kur": true, "lao": true, "lat": true, "lav": true, "lit": true,
	"mal": true, "mar": true, "mkd": true, "mlt": true, "msa": true,
	"mya": true, "nep": true, "nld": true, "nor": true, "ori": true,
	"pan": true, "pol": true, "por": true, "pus": true, "ron": true,
	"rus": true, "san": true, "sin": true, "slk": true, "slv": true,
	"spa": true, "spa_old": true, "sqi": true, "srp": true, "swa": true,
	"swe": true, "syr": true, "tam": true, "tel": true, "tgk": true,
	"tgl": true, "tha": true, "tir": true, "tur": true, "uig": true,
	"ukr": true, "urd": true, "uzb": true, "vie": true, "yid": true,
}
