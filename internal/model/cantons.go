package model

// Cantons maps Swiss canton codes to their names
var Cantons = map[string]string{
	"AG": "Aargau",
	"AI": "Appenzell Innerrhoden",
	"AR": "Appenzell Ausserrhoden",
	"BE": "Bern",
	"BL": "Basel-Landschaft",
	"BS": "Basel-Stadt",
	"FR": "Fribourg",
	"GE": "Geneva",
	"GL": "Glarus",
	"GR": "Graubunden",
	"JU": "Jura",
	"LU": "Lucerne",
	"NE": "Neuchatel",
	"NW": "Nidwalden",
	"OW": "Obwalden",
	"SG": "St. Gallen",
	"SH": "Schaffhausen",
	"SO": "Solothurn",
	"SZ": "Schwyz",
	"TG": "Thurgau",
	"TI": "Ticino",
	"UR": "Uri",
	"VD": "Vaud",
	"VS": "Valais",
	"ZG": "Zug",
	"ZH": "Zurich",
}
