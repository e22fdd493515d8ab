package alert

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	// queueSize 전송 대기열 크기. 가득 차면 새 알림은 버립니다.
	queueSize = 64

	// cooldownEntries 중복 방지를 위해 기억하는 상품 키 수
	cooldownEntries = 4096

	// drainTimeout 종료 시 대기열에 남은 알림을 전송하는 최대 시간
	drainTimeout = 10 * time.Second
)

// client 텔레그램 봇 API 중 메시지 전송에 필요한 부분입니다.
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Options 텔레그램 딜 알림 설정입니다.
type Options struct {
	BotToken string
	ChatID   int64

	// MinScore 이 점수 이상인 분석 결과만 알립니다.
	MinScore int

	// Cooldown 같은 상품을 다시 알리기까지의 최소 간격 (0이면 중복 방지 없음)
	Cooldown time.Duration

	RatePerMinute  int
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// Telegram 점수가 높은 분석 결과를 텔레그램 채팅방으로 보내는 Notifier 입니다.
//
// NotifyDeal 은 대기열에 넣기만 하고 즉시 반환하며, 실제 전송은 Start 로 시작한 워커가 담당합니다.
type Telegram struct {
	client client
	chatID int64

	minScore int

	// cooldown 최근에 알린 상품 키 (nil 이면 중복 방지 없음)
	cooldown   *expirable.LRU[string, struct{}]
	cooldownMu sync.Mutex

	rateLimiter *rate.Limiter

	maxRetries     int
	retryDelay     time.Duration
	requestTimeout time.Duration

	queue chan analyzer.Response

	runningMu sync.Mutex
	running   bool
	stopped   bool
}

var _ analyzer.DealNotifier = (*Telegram)(nil)

// NewTelegram 텔레그램 봇 API 클라이언트를 생성하고 Telegram Notifier 를 반환합니다.
func NewTelegram(opts Options) (*Telegram, error) {
	if opts.BotToken == "" || opts.ChatID == 0 {
		return nil, apperrors.New(apperrors.InvalidInput, "텔레그램 BotToken 과 ChatID 는 필수입니다")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: requestTimeoutOrDefault(opts.RequestTimeout)})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, "텔레그램 봇 API 클라이언트 생성에 실패했습니다")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": bot.Self.UserName,
		"chat_id":      opts.ChatID,
		"min_score":    opts.MinScore,
	}).Info("텔레그램 딜 알림 초기화 완료")

	return newTelegram(bot, opts), nil
}

func newTelegram(c client, opts Options) *Telegram {
	t := &Telegram{
		client:         c,
		chatID:         opts.ChatID,
		minScore:       opts.MinScore,
		maxRetries:     max(opts.MaxRetries, 0),
		retryDelay:     opts.RetryDelay,
		requestTimeout: requestTimeoutOrDefault(opts.RequestTimeout),
		queue:          make(chan analyzer.Response, queueSize),
	}
	if t.retryDelay <= 0 {
		t.retryDelay = time.Second
	}
	if opts.RatePerMinute > 0 {
		t.rateLimiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60), 1)
	}
	if opts.Cooldown > 0 {
		t.cooldown = expirable.NewLRU[string, struct{}](cooldownEntries, nil, opts.Cooldown)
	}

	return t
}

func requestTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// NotifyDeal 점수가 기준 이상이고 최근에 알리지 않은 상품이면 전송 대기열에 넣습니다.
func (t *Telegram) NotifyDeal(ctx context.Context, resp analyzer.Response) {
	if !resp.Score.Computed || resp.Score.Final < t.minScore {
		return
	}

	key := resp.Product.ProductKey
	if !t.claim(key) {
		applog.WithComponent(component).WithContext(ctx).WithField("product_key", key).Debug("알림 생략: 쿨다운 기간 내 중복 상품")
		return
	}

	select {
	case t.queue <- resp:
	default:
		t.release(key)
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": key,
			"queue_size":  queueSize,
		}).Warn("알림 대기열이 가득 차 딜 알림을 버립니다")
	}
}

// claim 쿨다운 중이 아니면 상품 키를 기록하고 true 를 반환합니다.
func (t *Telegram) claim(key string) bool {
	if t.cooldown == nil {
		return true
	}

	t.cooldownMu.Lock()
	defer t.cooldownMu.Unlock()

	if _, ok := t.cooldown.Get(key); ok {
		return false
	}
	t.cooldown.Add(key, struct{}{})
	return true
}

func (t *Telegram) release(key string) {
	if t.cooldown != nil {
		t.cooldown.Remove(key)
	}
}

// Start 전송 워커를 시작합니다. serviceStopCtx 가 취소되면 남은 알림을 보낸 뒤 종료합니다.
func (t *Telegram) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	t.runningMu.Lock()
	defer t.runningMu.Unlock()

	if t.running || t.stopped {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("딜 알림 서비스가 이미 실행 중이거나 종료되었습니다")
		return nil
	}
	t.running = true

	go t.run(serviceStopCtx, serviceStopWG)

	applog.WithComponent(component).Info("서비스 시작 완료: 딜 알림 서비스가 정상적으로 초기화되었습니다")

	return nil
}

func (t *Telegram) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case resp := <-t.queue:
			t.deliver(serviceStopCtx, resp)

		case <-serviceStopCtx.Done():
			t.drain()

			t.runningMu.Lock()
			t.running = false
			t.stopped = true
			t.runningMu.Unlock()

			applog.WithComponent(component).Info("딜 알림 서비스 종료 완료")
			return
		}
	}
}

// drain 종료 직전 대기열에 남은 알림을 제한 시간 안에서 전송합니다.
func (t *Telegram) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case resp := <-t.queue:
			t.deliver(ctx, resp)
		default:
			return
		}
		if ctx.Err() != nil {
			applog.WithComponentAndFields(component, applog.Fields{"remaining": len(t.queue)}).Warn("종료 제한 시간 초과: 남은 딜 알림을 버립니다")
			return
		}
	}
}

func (t *Telegram) deliver(ctx context.Context, resp analyzer.Response) {
	ctx, cancel := context.WithTimeout(ctx, t.requestTimeout*time.Duration(t.maxRetries+1))
	defer cancel()

	if err := t.send(ctx, buildDealMessage(resp), true); err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": resp.Product.ProductKey,
			"score":       resp.Score.Final,
			"error":       err,
		}).Error("딜 알림 전송 실패")
	}
}

// send 메시지를 전송하며 일시적인 오류는 재시도합니다.
// HTML 파싱 오류(400)는 PlainText 모드로 한 번 더 시도합니다.
func (t *Telegram) send(ctx context.Context, text string, useHTML bool) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if useHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= t.maxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := t.client.Send(msg)
		if err == nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"chat_id":        t.chatID,
				"attempt":        attempt,
				"mode":           formatParseMode(msg.ParseMode),
				"message_length": len(text),
			}).Info("발송 성공: 딜 알림이 전송되었습니다")
			return nil
		}
		lastErr = err

		code, retryAfter := parseTelegramError(err)
		if useHTML && code == http.StatusBadRequest {
			applog.WithComponentAndFields(component, applog.Fields{"error": err}).Warn("HTML 파싱 오류(400): PlainText 모드로 전환하여 재시도합니다")
			return t.send(ctx, text, false)
		}
		if !shouldRetry(code) {
			return err
		}
		if attempt > t.maxRetries {
			break
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"attempt": attempt,
			"code":    code,
			"error":   err,
		}).Warn("발송 실패: 재시도합니다")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.delayForRetry(retryAfter)):
		}
	}

	return apperrors.Wrap(lastErr, apperrors.Unavailable, "최대 재시도 횟수를 초과하였습니다")
}

// shouldRetry 429 와 5xx, 네트워크 오류(코드 0)만 재시도합니다.
func shouldRetry(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		return statusCode == http.StatusTooManyRequests
	}
	return true
}

func (t *Telegram) delayForRetry(retryAfter int) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	return t.retryDelay
}

func formatParseMode(mode string) string {
	if mode == tgbotapi.ModeHTML {
		return "HTML"
	}
	return "PlainText"
}

// parseTelegramError 텔레그램 API 에러에서 에러 코드와 Retry-After(초) 값을 추출합니다.
func parseTelegramError(err error) (code int, retryAfter int) {
	var apiErr tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}

	var apiErrPtr *tgbotapi.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.ResponseParameters.RetryAfter
	}

	return 0, 0
}
