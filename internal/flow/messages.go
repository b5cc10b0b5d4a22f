package flow

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// Bot copy, kept in Spanish for the student audience.
const (
	msgAskCareer   = "🎓 ¿Qué carrera estudias?"
	msgAskLocation = "📍 ¿En qué ciudad prefieres? (o escribe \"cualquiera\" para ver todas)"
	msgAskModality = "💼 ¿Qué modalidad prefieres?\n\n1️⃣ Presencial\n2️⃣ Remoto\n3️⃣ Híbrido\n4️⃣ Cualquiera"
	msgSearching   = "🔍 Buscando oportunidades perfectas para ti..."
	msgNoResults   = "❌ No encontré vacantes con esos criterios.\n\nIntenta con otros filtros o escribe \"todas las vacantes\" para ver opciones disponibles."
	msgNoVacancies = "❌ No hay vacantes disponibles en este momento."
	msgSearchError = "❌ Hubo un error al buscar. Por favor intenta de nuevo."
	msgAskForTerm  = "Por favor especifica la carrera. Ejemplo: \"vacantes de ingeniería\""

	msgHelp = "📚 *Comandos disponibles:*\n\n" +
		"🔍 *buscar prácticas* - Búsqueda personalizada\n" +
		"🎓 *vacantes de [carrera]* - Por carrera\n" +
		"📍 *vacantes en [ciudad]* - Por ubicación\n" +
		"🏠 *vacantes remotas* - Solo remotas\n" +
		"📋 *todas las vacantes* - Ver lista general\n\n" +
		"💡 Ejemplo: \"vacantes de ingeniería en sistemas\""

	msgTipByCareer = "💡 Tip: Puedes filtrar por carrera escribiendo \"vacantes de [carrera]\""
	msgTipDetails  = "💡 Para ver detalles, escribe \"vacantes de [tu carrera]\""
)

var motivationalMessages = []string{
	"¡Ánimo! Cada aplicación es un paso más cerca de tu oportunidad ideal 🌟",
	"Recuerda: las prácticas son el puente entre la universidad y tu carrera profesional 🌉",
	"¡Tú puedes! El servicio social es una gran oportunidad para aprender y crecer 💪",
	"No te desanimes, la vacante perfecta para ti está esperándote 🎯",
	"Cada experiencia cuenta. ¡Sigue adelante! 🚀",
	"El éxito está en persistir. ¡Tu oportunidad llegará! ⭐",
	"Las mejores oportunidades llegan a quienes las buscan activamente 🔍",
}

func motivationalMessage() string {
	return motivationalMessages[rand.Intn(len(motivationalMessages))]
}

var modalityEmojis = map[models.Modality]string{
	models.ModalityFullTime: "⏰",
	models.ModalityPartTime: "⏱️",
	models.ModalityRemote:   "🏠",
	models.ModalityHybrid:   "🔄",
	models.ModalityOnSite:   "🏢",
}

// FormatVacancyInfo renders the full WhatsApp card for one vacancy.
func FormatVacancyInfo(v models.Vacancy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏢 *%s*\n", v.Company)
	fmt.Fprintf(&b, "📋 *Puesto:* %s\n", v.Title)
	fmt.Fprintf(&b, "🎓 *Carrera:* %s\n", v.Career)
	fmt.Fprintf(&b, "📍 *Lugar:* %s\n", v.Location)
	fmt.Fprintf(&b, "⏰ *Modalidad:* %s\n", models.ModalityLabel(v.Modality))
	fmt.Fprintf(&b, "👥 *Vacantes:* %d\n", v.Openings)
	fmt.Fprintf(&b, "📝 *Tipo:* %s", models.VacancyTypeLabel(v.Type))
	if v.Description != "" {
		fmt.Fprintf(&b, "\n💼 *Descripción:* %s", v.Description)
	}
	if v.Requirements != "" {
		fmt.Fprintf(&b, "\n✅ *Requisitos:* %s", v.Requirements)
	}
	if v.Benefits != "" {
		fmt.Fprintf(&b, "\n🎁 *Beneficios:* %s", v.Benefits)
	}
	if v.URL != "" {
		fmt.Fprintf(&b, "\n🔗 *Más info:* %s", v.URL)
	}
	if v.Deadline != nil {
		fmt.Fprintf(&b, "\n⏳ *Fecha límite:* %s", v.Deadline.Format("02/01/2006"))
	}
	return b.String()
}

// FormatVacancySummary renders the one-line listing form.
func FormatVacancySummary(v models.Vacancy) string {
	emoji, ok := modalityEmojis[v.Modality]
	if !ok {
		emoji = "📋"
	}
	return fmt.Sprintf("%s *%s* en %s - %s", emoji, v.Title, v.Company, v.Location)
}

// fallbackResponse covers messages the AI could not answer.
func fallbackResponse(text string) string {
	lower := strings.ToLower(text)
	if containsAny(lower, []string{"hola", "hi", "hello", "buenas", "qué tal"}) {
		return "👋 ¡Hola! Soy tu asistente para encontrar prácticas profesionales y servicio social.\n\n" +
			"Puedes escribir:\n" +
			"• \"buscar prácticas\" para comenzar\n" +
			"• \"vacantes de [tu carrera]\" para búsqueda directa\n" +
			"• \"ayuda\" para ver todas las opciones"
	}
	if containsAny(lower, []string{"gracias", "thanks"}) {
		return "😊 ¡De nada! Espero que encuentres la oportunidad perfecta. ¡Mucho éxito!"
	}
	return "🤖 ¡Hola! Puedo ayudarte a encontrar prácticas y servicio social.\n\n" +
		"Prueba escribiendo:\n" +
		"• \"buscar prácticas\"\n" +
		"• \"vacantes de [tu carrera]\"\n" +
		"• \"ayuda\" para más opciones"
}
