package bot

// User-facing message texts.
const (
	msgHelp = "Для активации функционала вашего персонального ассистента, выполните команду /start."

	msgWait = "Пожалуйста, ожидайте..."

	msgAskName = "Пожалуйста, укажите название вашей компании."

	msgAskURL = "Пожалуйста, введите URL веб-сайта вашей компании. Дополнительная информация не требуется."

	msgNoURL = "Извините, в вашем сообщении нет URL-адреса. Попробуйте ещё раз."

	msgInvalidURL = "Ваш URL-адрес невалиден. Попробуйте ещё раз."

	msgBadName = "Имя компании должно содержать только буквы, цифра, пробелы, дефисы и кавычки."

	msgBadNameLength = "Имя компании должно иметь длину от 2 до 100 символов."

	msgOnboardingStarted = "Принято! Ваш личный ассистент скоро будет создан. Пожалуйста, ожидайте..."

	msgAssistantCreated = "Ассистент для Вашей компании успешно создан! Пообщаться с ним вы сможете, перейдя по следующей ссылке: "

	msgAssistantGreetPrompt = "Привет, коротко представься (Обязательно скажи, какую компанию ты представляешь)."

	msgAssistantActivated = "Ваш ассистент активирован!"

	msgAssistantLoading = "Ваш ассистент загружается. Пожалуйста, подождите."

	msgAssistantFailed = "Возникла ошибка: ассистент не сумел создаться. Пожалуйста, повторите попытку."

	msgSessionCleared = "Диалог сброшен. Выполните /start, чтобы начать заново."
)
