package domain

// climateTable lists the climate affinity of every class the leaf classifier
// can emit. F1 scores are the classifier's per-class validation scores.
var climateTable = []DiseaseProfile{
	{
		ID:         "Apple___Apple_scab",
		Climate:    "Cool & Wet (Spring)",
		KeyFactors: "Rain, long periods of leaf wetness",
		F1Score:    0.91,
		Worsening:  TagSet{TagRain, TagWet, TagHumidity},
		Safe:       TagSet{TagDry, TagWarm},
	},
	{
		ID:         "Apple___Black_rot",
		Climate:    "Warm & Wet",
		KeyFactors: "High humidity, rain, warm temperatures",
		F1Score:    0.97,
		Worsening:  TagSet{TagRain, TagHumidity, TagWarm},
		Safe:       TagSet{TagDry, TagCool},
	},
	{
		ID:         "Apple___Cedar_apple_rust",
		Climate:    "Wet (Spring/Early Summer)",
		KeyFactors: "Rain for spore transfer",
		F1Score:    0.97,
		Worsening:  TagSet{TagRain, TagWet},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Apple___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.89,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Blueberry___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.92,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Cherry_(including_sour)___Powdery_mildew",
		Climate:    "Warm, Humid, & Shady",
		KeyFactors: "High humidity, but not free water",
		F1Score:    0.94,
		Worsening:  TagSet{TagHumidity, TagWarm, TagShade},
		Safe:       TagSet{TagDry, TagSunny},
	},
	{
		ID:         "Cherry_(including_sour)___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.96,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Corn_(maize)___Cercospora_leaf_spot_Gray_leaf_spot",
		Climate:    "Warm & Humid",
		KeyFactors: "High humidity, moderate to high temperatures",
		F1Score:    0.92,
		Worsening:  TagSet{TagHumidity, TagWarm},
		Safe:       TagSet{TagDry, TagCool},
	},
	{
		ID:         "Corn_(maize)___Common_rust_",
		Climate:    "Cool & Wet",
		KeyFactors: "Dew, cool nights, moderate days",
		F1Score:    0.99,
		Worsening:  TagSet{TagDew, TagCool, TagWet},
		Safe:       TagSet{TagDry, TagWarm},
	},
	{
		ID:         "Corn_(maize)___Northern_Leaf_Blight",
		Climate:    "Cool & Wet",
		KeyFactors: "High humidity, moderate temperatures (18C to 26C)",
		F1Score:    0.94,
		Worsening:  TagSet{TagHumidity, TagCool, TagWet},
		Safe:       TagSet{TagDry, TagWarm},
	},
	{
		ID:         "Corn_(maize)___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.99,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Grape___Black_rot",
		Climate:    "Warm & Wet",
		KeyFactors: "Rain, temperatures over 10C",
		F1Score:    0.97,
		Worsening:  TagSet{TagRain, TagWarm, TagWet},
		Safe:       TagSet{TagDry, TagCool},
	},
	{
		ID:         "Grape___Esca_(Black_Measles)",
		Climate:    "N/A (Wood disease)",
		KeyFactors: "High temperatures may increase symptoms",
		F1Score:    0.98,
		Worsening:  TagSet{TagWarm, TagHot},
		Safe:       TagSet{TagCool},
	},
	{
		ID:         "Grape___Leaf_blight_(Isariopsis_Leaf_Spot)",
		Climate:    "Warm & Wet",
		KeyFactors: "Rain, high humidity",
		F1Score:    0.98,
		Worsening:  TagSet{TagRain, TagHumidity, TagWarm},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Grape___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.99,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Orange___Haunglongbing_(Citrus_greening)",
		Climate:    "Warm (Vector spread)",
		KeyFactors: "Warm conditions favor the insect vector (psyllid)",
		F1Score:    0.96,
		Worsening:  TagSet{TagWarm},
		Safe:       TagSet{TagCool},
	},
	{
		ID:         "Peach___Bacterial_spot",
		Climate:    "Warm & Wet",
		KeyFactors: "Rain, wind, high temperatures (24C to 30C)",
		F1Score:    0.93,
		Worsening:  TagSet{TagRain, TagWarm, TagWind},
		Safe:       TagSet{TagDry, TagCool},
	},
	{
		ID:         "Peach___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.96,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Pepper,_bell___Bacterial_spot",
		Climate:    "Warm & Wet",
		KeyFactors: "Rain, high humidity",
		F1Score:    0.93,
		Worsening:  TagSet{TagRain, TagHumidity, TagWarm},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Pepper,_bell___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.89,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Potato___Early_blight",
		Climate:    "Warm & Wet",
		KeyFactors: "High temperatures (24C to 29C), leaf wetness",
		F1Score:    0.96,
		Worsening:  TagSet{TagWarm, TagWet, TagHumidity},
		Safe:       TagSet{TagDry, TagCool},
	},
	{
		ID:         "Potato___Late_blight",
		Climate:    "Cool & Wet",
		KeyFactors: "Long periods of 100% humidity, cool temperatures (10C to 20C)",
		F1Score:    0.94,
		Worsening:  TagSet{TagCool, TagWet, TagHumidity},
		Safe:       TagSet{TagDry, TagWarm},
	},
	{
		ID:         "Potato___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.94,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Raspberry___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.94,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Soybean___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.97,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Squash___Powdery_mildew",
		Climate:    "Warm, Humid, & Shady",
		KeyFactors: "High humidity, but not free water",
		F1Score:    0.96,
		Worsening:  TagSet{TagHumidity, TagWarm},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Strawberry___Leaf_scorch",
		Climate:    "Wet",
		KeyFactors: "High humidity, frequent rainfall",
		F1Score:    0.96,
		Worsening:  TagSet{TagRain, TagHumidity, TagWet},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Strawberry___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.98,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Tomato___Bacterial_spot",
		Climate:    "Warm & Wet",
		KeyFactors: "High heat and high moisture (24C to 30C)",
		F1Score:    0.96,
		Worsening:  TagSet{TagWarm, TagHumidity, TagWet},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Tomato___Early_blight",
		Climate:    "Warm & Wet",
		KeyFactors: "High temperatures (24C to 29C), leaf wetness",
		F1Score:    0.87,
		Worsening:  TagSet{TagWarm, TagWet, TagHumidity},
		Safe:       TagSet{TagDry, TagCool},
	},
	{
		ID:         "Tomato___Late_blight",
		Climate:    "Cool & Wet",
		KeyFactors: "Long periods of 100% humidity, cool temperatures (10C to 20C)",
		F1Score:    0.89,
		Worsening:  TagSet{TagCool, TagWet, TagHumidity},
		Safe:       TagSet{TagDry, TagWarm},
	},
	{
		ID:         "Tomato___Leaf_Mold",
		Climate:    "Warm & High Humidity",
		KeyFactors: "Poor air circulation, high humidity",
		F1Score:    0.96,
		Worsening:  TagSet{TagHumidity, TagWarm},
		Safe:       TagSet{TagDry, TagVentilated},
	},
	{
		ID:         "Tomato___Septoria_leaf_spot",
		Climate:    "Warm & Wet",
		KeyFactors: "Moderate temperatures (20C to 25C), rain/splash",
		F1Score:    0.88,
		Worsening:  TagSet{TagWarm, TagRain, TagWet},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Tomato___Spider_mites_Two-spotted_spider_mite",
		Climate:    "Hot & Dry",
		KeyFactors: "Drought conditions, low humidity",
		F1Score:    0.93,
		Worsening:  TagSet{TagHot, TagDry},
		Safe:       TagSet{TagCool, TagHumid},
	},
	{
		ID:         "Tomato___Target_Spot",
		Climate:    "Warm & Wet",
		KeyFactors: "High temperatures, high humidity",
		F1Score:    0.90,
		Worsening:  TagSet{TagWarm, TagHumidity, TagWet},
		Safe:       TagSet{TagDry},
	},
	{
		ID:         "Tomato___Tomato_Yellow_Leaf_Curl_Virus",
		Climate:    "Hot & Dry (Vector spread)",
		KeyFactors: "High temperatures favor the insect vector (Whitefly)",
		F1Score:    0.99,
		Worsening:  TagSet{TagHot, TagDry},
		Safe:       TagSet{TagCool},
	},
	{
		ID:         "Tomato___Tomato_mosaic_virus",
		Climate:    "N/A (Mechanical transfer)",
		KeyFactors: "Virus not highly climate dependent, but stress worsens symptoms",
		F1Score:    0.95,
		Worsening:  TagSet{TagStress},
		Safe:       TagSet{TagStable},
	},
	{
		ID:         "Tomato___healthy",
		Climate:    "N/A (Favored by Dry)",
		KeyFactors: "N/A",
		F1Score:    0.98,
		Worsening:  TagSet{},
		Safe:       TagSet{TagDry},
	},
}
