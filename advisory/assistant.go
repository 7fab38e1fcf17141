package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"farm2market/gemini"
)

const assistantAttempts = 3

var assistantConfig = gemini.GenerationConfig{
	Temperature:     0.7,
	TopP:            0.8,
	TopK:            40,
	MaxOutputTokens: 1000,
}

var systemPrompts = map[string]string{
	"en": `You are Farm2Market AI Assistant, a helpful AI designed to assist farmers and buyers on our agricultural marketplace platform.

Platform Context:
- Farm2Market connects small and marginal farmers directly with buyers
- We eliminate middlemen to ensure fair prices
- Platform features: crop listing, AI price suggestions, real-time chat, secure payments
- We support English, Hindi, and Tamil languages

Your capabilities:
- Help farmers list crops effectively
- Provide farming advice and best practices
- Assist buyers in finding the right crops
- Explain platform features and processes
- Give price guidance and market insights
- Help with technical issues
- Provide agricultural knowledge

Guidelines:
- Be helpful, friendly, and knowledgeable
- Keep responses concise but informative
- Use farming and marketplace terminology appropriately
- Suggest platform features when relevant
- If asked about technical issues, provide practical solutions
- For farming advice, be practical and region-appropriate`,

	"hi": `आप Farm2Market AI सहायक हैं, एक सहायक AI हैं जो हमारे कृषि बाज़ार प्लेटफॉर्म पर किसानों और खरीदारों की सहायता करने के लिए डिज़ाइन किया गया है।

प्लेटफॉर्म संदर्भ:
- Farm2Market छोटे और सीमांत किसानों को सीधे खरीदारों से जोड़ता है
- हम उचित मूल्य सुनिश्चित करने के लिए बिचौलियों को हटाते हैं
- प्लेटफॉर्म की सुविधाएं: फसल सूची, AI मूल्य सुझाव, रीयल-टाइम चैट, सुरक्षित भुगतान

आपकी क्षमताएं:
- किसानों को फसल सूची बनाने में सहायता करना
- खेती की सलाह और सर्वोत्तम प्रथाएं प्रदान करना
- खरीदारों को सही फसल खोजने में सहायता करना
- प्लेटफॉर्म की सुविधाओं और प्रक्रियाओं की व्याख्या करना
- मूल्य मार्गदर्शन और बाज़ार अंतर्दृष्टि देना`,

	"ta": `நீங்கள் Farm2Market AI உதவியாளர், எங்கள் விவசாய சந்தை தளத்தில் விவசாயிகள் மற்றும் வாங்குபவர்களுக்கு உதவ வடிவமைக்கப்பட்ட உதவிகரமான AI ஆவீர்கள்.

தளத்தின் சூழல்:
- Farm2Market சிறிய மற்றும் விளிம்பு விவசாயிகளை நேரடியாக வாங்குபவர்களுடன் இணைக்கிறது
- நியாயமான விலைகளை உறுதிசெய்ய நாங்கள் இடைத்தரகர்களை நீக்குகிறோம்
- தளத்தின் அம்சங்கள்: பயிர் பட்டியல், AI விலை பரிந்துரைகள், நிகழ்நேர அரட்டை, பாதுகாப்பான கொடுப்பனவுகள்

உங்கள் திறன்கள்:
- விவசாயிகளுக்கு பயிர்களை பட்டியலிட உதவுதல்
- விவசாய ஆலோசனை மற்றும் சிறந்த நடைமுறைகளை வழங்குதல்
- வாங்குபவர்களுக்கு சரியான பயிர்களைக் கண்டறிய உதவுதல்
- தளத்தின் அம்சங்கள் மற்றும் செயல்முறைகளை விளக்குதல்`,
}

// Keyword answers used when the model cannot respond. Keys other than
// "default" are matched as substrings of the lowercased message.
var fallbackResponses = map[string]map[string]string{
	"en": {
		"price":   "For pricing help, try using our AI price suggestion feature when listing crops. Consider factors like crop quality, season, and local market demand.",
		"sell":    "To sell crops: 1) Login as farmer 2) Add crop details with photos 3) Set competitive prices 4) Wait for buyer inquiries. Make sure to provide accurate crop information!",
		"buy":     "To buy crops: 1) Browse available crops 2) Use search and filters 3) Add to cart 4) Contact farmers directly 5) Complete secure payment.",
		"help":    "I can help with: crop listing, pricing guidance, platform navigation, farming tips, and connecting with other users. What specific topic interests you?",
		"default": "I'm currently running in basic mode. I can still help with general platform questions. Try asking about selling crops, buying process, or pricing guidance!",
	},
	"hi": {
		"price":   "मूल्य सहायता के लिए, फसल सूची बनाते समय हमारी AI मूल्य सुझाव सुविधा का उपयोग करें। फसल की गुणवत्ता, मौसम और स्थानीय बाजार की मांग को ध्यान में रखें।",
		"sell":    "फसल बेचने के लिए: 1) किसान के रूप में लॉगिन करें 2) फोटो के साथ फसल विवरण जोड़ें 3) प्रतिस्पर्धी मूल्य निर्धारित करें 4) खरीदार पूछताछ की प्रतीक्षा करें।",
		"buy":     "फसल खरीदने के लिए: 1) उपलब्ध फसलों को ब्राउज़ करें 2) खोज और फिल्टर का उपयोग करें 3) कार्ट में जोड़ें 4) किसानों से सीधे संपर्क करें।",
		"help":    "मैं इनमें मदद कर सकता हूं: फसल सूची, मूल्य मार्गदर्शन, प्लेटफॉर्म नेवीगेशन, खेती की सुझाव। आप किस विषय में रुचि रखते हैं?",
		"default": "मैं वर्तमान में बेसिक मोड में चल रहा हूं। मैं अभी भी सामान्य प्लेटफॉर्म प्रश्नों में मदद कर सकता हूं!",
	},
	"ta": {
		"price":   "விலை உதவிக்கு, பயிர்களைப் பட்டியலிடும்போது எங்கள் AI விலை பரிந்துரை அம்சத்தைப் பயன்படுத்துங்கள். பயிரின் தரம், பருவம் மற்றும் உள்ளூர் சந்தைத் தேவையைக் கவனியுங்கள்.",
		"sell":    "பயிர்களை விற்க: 1) விவசாயியாக உள்நுழைக 2) புகைப்படங்களுடன் பயிர் விவரங்களைச் சேர்க்கவும் 3) போட்டித்தன்மையான விலைகளை நிர்ணயிக்கவும் 4) வாங்குவோர் விசாரணைக்காக காத்திருக்கவும்.",
		"buy":     "பயிர்களை வாங்க: 1) கிடைக்கும் பயிர்களை உலாவவும் 2) தேடல் மற்றும் வடிகட்டிகளைப் பயன்படுத்துங்கள் 3) வண்டியில் சேர்க்கவும் 4) விவசாயிகளை நேரடியாகத் தொடர்பு கொள்ளுங்கள்.",
		"help":    "நான் இவற்றில் உதவ முடியும்: பயிர் பட்டியல், விலை வழிகாட்டுதல், தளம் வழிசெலுத்தல், விவசாய உதவிக்குறிப்புகள். எந்த குறிப்பிட்ட தலைப்பில் ஆர்வமாக உள்ளீர்கள்?",
		"default": "நான் தற்போது அடிப்படை பயன்முறையில் இயங்குகிறேன். பொதுவான தளம் கேள்விகளில் நான் இன்னும் உதவ முடியும்!",
	},
}

// Chat answers a user message in their language, retrying the model a
// few times before serving the keyword fallback.
func (s *Service) Chat(ctx context.Context, message string, userContext map[string]interface{}) string {
	language := "en"
	if userContext != nil {
		if lang, ok := userContext["language"].(string); ok && lang != "" {
			language = lang
		}
	}

	system, ok := systemPrompts[language]
	if !ok {
		system = systemPrompts["en"]
	}

	contextJSON, _ := json.Marshal(userContext)
	prompt := fmt.Sprintf("%s\nUser Context: %s\n\nUser Question: %s\n\nAssistant:", system, contextJSON, message)

	if s.Model != nil {
		for attempt := 1; attempt <= assistantAttempts; attempt++ {
			reply, err := s.Model.Generate(ctx, prompt, assistantConfig)
			if err == nil && strings.TrimSpace(reply) != "" {
				return strings.TrimSpace(reply)
			}
			log.Printf("Assistant model call failed (attempt %d/%d): %v", attempt, assistantAttempts, err)
		}
	}

	return fallbackChat(message, language)
}

func fallbackChat(message, language string) string {
	responses, ok := fallbackResponses[language]
	if !ok {
		responses = fallbackResponses["en"]
	}

	messageLower := strings.ToLower(message)
	for _, keyword := range []string{"price", "sell", "buy", "help"} {
		if strings.Contains(messageLower, keyword) {
			return responses[keyword]
		}
	}
	return responses["default"]
}
