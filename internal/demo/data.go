package demo

import "github.com/suteetoe/tenantstarter/internal/model"

// Password is shared by every demo user
const Password = "demo1234!"

type demoUser struct {
	Username, Email, FirstName, LastName string
	Superuser, Staff                     bool
	Role                                 string
}

type demoLocation struct {
	Name, Description, Type                              string
	Lat, Lon                                             float64
	Street, City, ZipCode, Canton, Phone, Email, Website string
}

type demoTeam struct {
	Name, Slug, Description, Leader string
	Members                         []string
}

type demoTenant struct {
	Tenant    model.Tenant
	Domain    string
	Users     []demoUser
	Locations []demoLocation
	Teams     []demoTeam
}

var tenants = []demoTenant{
	{
		Tenant: model.Tenant{
			Name: "Acme Corporation", SchemaName: "tenant_acme",
			ContactName: "Alice Martin", ContactEmail: "alice@acme.localhost", ContactPhone: "+41 21 345 67 89",
			Street: "Rue du Marche 12", City: "Lausanne", ZipCode: "1003", Canton: "VD",
			PrimaryColor: "#2563eb", DefaultLanguage: "fr", ActiveLanguages: model.Languages{"en", "fr"},
		},
		Domain: "acme.localhost",
		Users: []demoUser{
			{"alice", "alice@acme.localhost", "Alice", "Martin", true, true, "admin"},
			{"marc", "marc@acme.localhost", "Marc", "Dupont", false, true, "manager"},
			{"julie", "julie@acme.localhost", "Julie", "Bernard", false, false, "editor"},
			{"thomas", "thomas@acme.localhost", "Thomas", "Favre", false, false, "viewer"},
			{"sophie", "sophie@acme.localhost", "Sophie", "Roux", false, false, "member"},
		},
		Locations: []demoLocation{
			{Name: "Acme HQ", Description: "Main headquarters in Lausanne", Type: "Office", Lat: 46.5197, Lon: 6.6323, Street: "Rue du Marche 12", City: "Lausanne", ZipCode: "1003", Canton: "VD", Phone: "+41 21 345 67 89", Email: "hq@acme.localhost", Website: "https://acme.localhost"},
			{Name: "Acme Warehouse Yverdon", Description: "Main storage facility", Type: "Warehouse", Lat: 46.7785, Lon: 6.6410, Street: "Zone Industrielle 8", City: "Yverdon-les-Bains", ZipCode: "1400", Canton: "VD", Phone: "+41 24 456 78 90"},
			{Name: "Client - Nestle", Description: "Nestle partnership site", Type: "Client Site", Lat: 46.4614, Lon: 6.8418, Street: "Avenue Nestle 55", City: "Vevey", ZipCode: "1800", Canton: "VD"},
			{Name: "SwissTech Convention Center", Description: "Annual tech conference venue", Type: "Event Venue", Lat: 46.5232, Lon: 6.5654, Street: "Route Louis-Favre 2", City: "Ecublens", ZipCode: "1024", Canton: "VD"},
			{Name: "Partner - EPFL Innovation Park", Description: "Research collaboration partner", Type: "Partner", Lat: 46.5185, Lon: 6.5636, Street: "EPFL Innovation Park", City: "Ecublens", ZipCode: "1024", Canton: "VD", Website: "https://epfl-innovationpark.ch"},
		},
		Teams: []demoTeam{
			{"Engineering", "engineering", "Software development team", "marc", []string{"marc", "julie", "thomas"}},
			{"Operations", "operations", "Logistics and operations", "alice", []string{"alice", "sophie"}},
		},
	},
	{
		Tenant: model.Tenant{
			Name: "Helvetia Tech", SchemaName: "tenant_helvetia",
			ContactName: "Bruno Keller", ContactEmail: "bruno@helvetia.localhost", ContactPhone: "+41 44 567 89 01",
			Street: "Bahnhofstrasse 42", City: "Zurich", ZipCode: "8001", Canton: "ZH",
			PrimaryColor: "#dc2626", DefaultLanguage: "en", ActiveLanguages: model.Languages{"en", "fr"},
		},
		Domain: "helvetia.localhost",
		Users: []demoUser{
			{"bruno", "bruno@helvetia.localhost", "Bruno", "Keller", true, true, "admin"},
			{"sarah", "sarah@helvetia.localhost", "Sarah", "Meier", false, true, "manager"},
			{"david", "david@helvetia.localhost", "David", "Schmid", false, false, "editor"},
		},
		Locations: []demoLocation{
			{Name: "Helvetia Tech HQ", Description: "Main office in Zurich", Type: "Office", Lat: 47.3769, Lon: 8.5417, Street: "Bahnhofstrasse 42", City: "Zurich", ZipCode: "8001", Canton: "ZH", Phone: "+41 44 567 89 01", Email: "info@helvetia.localhost"},
			{Name: "Helvetia Lab Basel", Description: "R&D laboratory", Type: "Office", Lat: 47.5596, Lon: 7.5886, Street: "Steinenvorstadt 19", City: "Basel", ZipCode: "4051", Canton: "BS"},
			{Name: "Client - Roche", Description: "Pharmaceutical client site", Type: "Client Site", Lat: 47.5629, Lon: 7.6034, Street: "Grenzacherstrasse 124", City: "Basel", ZipCode: "4058", Canton: "BS"},
			{Name: "ETH Zurich Partnership", Description: "Academic research partner", Type: "Partner", Lat: 47.3763, Lon: 8.5482, Street: "Ramistrasse 101", City: "Zurich", ZipCode: "8092", Canton: "ZH", Website: "https://ethz.ch"},
		},
		Teams: []demoTeam{
			{"Research", "research", "R&D and innovation", "sarah", []string{"sarah", "david"}},
		},
	},
	{
		Tenant: model.Tenant{
			Name: "Geneva Digital", SchemaName: "tenant_geneva",
			ContactName: "Claire Dubois", ContactEmail: "claire@geneva.localhost", ContactPhone: "+41 22 789 01 23",
			Street: "Quai du Mont-Blanc 5", City: "Geneva", ZipCode: "1201", Canton: "GE",
			PrimaryColor: "#059669", DefaultLanguage: "fr", ActiveLanguages: model.Languages{"en", "fr"},
		},
		Domain: "geneva.localhost",
		Users: []demoUser{
			{"claire", "claire@geneva.localhost", "Claire", "Dubois", true, true, "admin"},
			{"luca", "luca@geneva.localhost", "Luca", "Rossi", false, true, "manager"},
			{"emma", "emma@geneva.localhost", "Emma", "Bonnet", false, false, "editor"},
			{"noah", "noah@geneva.localhost", "Noah", "Moreau", false, false, "member"},
		},
		Locations: []demoLocation{
			{Name: "Geneva Digital Office", Description: "Main office at lakefront", Type: "Office", Lat: 46.2044, Lon: 6.1432, Street: "Quai du Mont-Blanc 5", City: "Geneva", ZipCode: "1201", Canton: "GE", Phone: "+41 22 789 01 23", Email: "hello@geneva.localhost"},
			{Name: "CERN Meeting Point", Description: "Physics research collaboration", Type: "Partner", Lat: 46.2330, Lon: 6.0557, Street: "Esplanade des Particules 1", City: "Meyrin", ZipCode: "1217", Canton: "GE", Website: "https://home.cern"},
			{Name: "Palexpo Conference Hall", Description: "Exhibition and conference center", Type: "Event Venue", Lat: 46.2339, Lon: 6.1114, Street: "Route Francois-Peyrot 30", City: "Le Grand-Saconnex", ZipCode: "1218", Canton: "GE"},
			{Name: "Warehouse Nyon", Description: "Regional logistics hub", Type: "Warehouse", Lat: 46.3833, Lon: 6.2348, Street: "Route de Saint-Cergue 295", City: "Nyon", ZipCode: "1260", Canton: "VD"},
			{Name: "Client - UN Geneva", Description: "United Nations office", Type: "Client Site", Lat: 46.2265, Lon: 6.1400, Street: "Palais des Nations", City: "Geneva", ZipCode: "1211", Canton: "GE"},
			{Name: "Client - WHO", Description: "World Health Organization", Type: "Client Site", Lat: 46.2332, Lon: 6.1335, Street: "Avenue Appia 20", City: "Geneva", ZipCode: "1211", Canton: "GE"},
		},
		Teams: []demoTeam{
			{"Consulting", "consulting", "Client consulting team", "luca", []string{"luca", "emma", "noah"}},
			{"Management", "management", "Executive team", "claire", []string{"claire", "luca"}},
		},
	},
}

var locationTypes = []model.LocationType{
	{Name: "Office", Icon: "bi-building", Color: "#2563eb", IsActive: true},
	{Name: "Warehouse", Icon: "bi-box-seam", Color: "#d97706", IsActive: true},
	{Name: "Client Site", Icon: "bi-person-workspace", Color: "#059669", IsActive: true},
	{Name: "Event Venue", Icon: "bi-calendar-event", Color: "#dc2626", IsActive: true},
	{Name: "Partner", Icon: "bi-handshake", Color: "#7c3aed", IsActive: true},
}

var mapLayers = []model.MapLayer{
	{Name: "OpenStreetMap", URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", Attribution: "&copy; OpenStreetMap contributors", IsDefault: true, MaxZoom: 19, Opacity: 1, SortOrder: 0, IsActive: true},
	{Name: "Satellite (Esri)", URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}", Attribution: "&copy; Esri", MaxZoom: 18, Opacity: 1, SortOrder: 1, IsActive: true},
	{Name: "Topographic", URLTemplate: "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png", Attribution: "&copy; OpenTopoMap", MaxZoom: 17, Opacity: 1, SortOrder: 2, IsActive: true},
}
