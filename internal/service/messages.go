package service

// User-facing copy. Kept short and non-technical; operator detail goes
// to the log only.
const (
	msgPromptDay     = "Qual dia do mês você quer ser cobrado? Envie um número de 1 a 31."
	msgInvalidDay    = "Dia inválido. Envie um número de 1 a 31."
	msgPromptAmount  = "Qual o valor da cobrança em reais? (maior que 0, até R$ %s)"
	msgInvalidAmount = "Valor inválido. Envie um número maior que 0 e até R$ %s."
	msgPromptTaxID   = "Informe seu CPF (11 dígitos) ou CNPJ (14 dígitos)."
	msgInvalidTaxID  = "Documento inválido. Envie um CPF com 11 dígitos ou um CNPJ com 14 dígitos."
	msgConfigured    = "Cobrança recorrente configurada: todo dia %d, R$ %s. Use /status para acompanhar."
	msgCancelled     = "Configuração cancelada."
	msgNothingToDo   = "Nada para cancelar. Use /start para configurar sua cobrança."

	msgChargeCaption  = "Cobrança de R$ %s\n\nCopie o código PIX abaixo para pagar:\n\n%s"
	msgMarkPaidButton = "✅ Já paguei"

	msgPaymentConfirmed    = "Pagamento confirmado! Até o próximo ciclo."
	msgChargeIssueFailed   = "Não foi possível gerar a cobrança agora. Vamos tentar novamente em breve."
	msgNoProfile           = "Você ainda não tem cobrança configurada. Use /start para começar."
	msgStatusReport        = "Sua cobrança: R$ %s todo dia %d.\nPróxima cobrança: %s.\nStatus: %s"
	msgStatusActive        = "ativa"
	msgStatusInactive      = "inativa"
	msgHelp                = "Comandos disponíveis:\n/start - configurar cobrança recorrente\n/pay - gerar uma cobrança agora\n/status - ver sua configuração\n/cancel - cancelar a configuração em andamento\n/help - esta mensagem"
	msgCallbackConfirmed   = "Pagamento confirmado!"
	msgCallbackNotSettled  = "Pagamento ainda não identificado."
	msgCallbackStaleCharge = "Cobrança substituída, use a mais recente."
)
