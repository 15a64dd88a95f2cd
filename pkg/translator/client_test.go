package translator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"meditalk-go/internal/config"
	"meditalk-go/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init("error", "json", "")
	os.Exit(m.Run())
}

func newTestClient(baseURL string) Gateway {
	return NewClient(config.TranslationConfig{
		BaseURL:        baseURL,
		Email:          "test@example.com",
		TimeoutSeconds: 1,
	})
}

func TestTranslateSuccess(t *testing.T) {
	var gotQuery, gotLangpair, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotLangpair = r.URL.Query().Get("langpair")
		gotEmail = r.URL.Query().Get("email")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responseData":{"translatedText":"Hola"},"responseStatus":200,"responseDetails":""}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	t.Run("指定源语言", func(t *testing.T) {
		result, err := client.Translate(context.Background(), "Hello", "es", "en")
		require.NoError(t, err)
		assert.Equal(t, "Hello", result.OriginalText)
		assert.Equal(t, "Hola", result.TranslatedText)
		assert.Equal(t, "en", result.SourceLanguage)
		assert.Equal(t, "es", result.TargetLanguage)
		assert.Equal(t, "Hello", gotQuery)
		assert.Equal(t, "en|es", gotLangpair)
		assert.Equal(t, "test@example.com", gotEmail)
	})

	t.Run("源语言为空时自动检测", func(t *testing.T) {
		result, err := client.Translate(context.Background(), "Hello", "es", "")
		require.NoError(t, err)
		assert.Equal(t, "auto|es", gotLangpair)
		assert.Equal(t, "auto-detected", result.SourceLanguage)
	})
}

func TestTranslateApplicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"responseData":{"translatedText":""},"responseStatus":"403","responseDetails":"INVALID LANGUAGE PAIR SPECIFIED"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Translate(context.Background(), "Hello", "xx", "en")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "INVALID LANGUAGE PAIR SPECIFIED", err.Error())
}

func TestTranslateLocalValidation(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	t.Run("空文本被拒绝", func(t *testing.T) {
		_, err := client.Translate(context.Background(), "   ", "es", "en")
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("超长文本被拒绝", func(t *testing.T) {
		long := strings.Repeat("好", MaxTextLength+1)
		_, err := client.Translate(context.Background(), long, "es", "en")
		assert.ErrorIs(t, err, ErrTextTooLong)
	})

	t.Run("刚好到达上限的文本可以通过校验", func(t *testing.T) {
		exact := strings.Repeat("好", MaxTextLength)
		_, _ = client.Translate(context.Background(), exact, "es", "en")
		assert.Equal(t, 1, requests)
	})

	// 未通过本地校验的请求不应产生任何网络调用
	assert.Equal(t, 1, requests)
}

func TestTranslateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Translate(context.Background(), "Hello", "es", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestTranslateTextFallback(t *testing.T) {
	t.Run("服务失败时降级为原文", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		got := client.TranslateText(context.Background(), "Hello", "es", "en")
		assert.Equal(t, "Hello", got)
	})

	t.Run("成功时返回译文", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"responseData":{"translatedText":"Hola"},"responseStatus":200}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		got := client.TranslateText(context.Background(), "Hello", "es", "en")
		assert.Equal(t, "Hola", got)
	})
}

func TestLanguageRegistry(t *testing.T) {
	t.Run("注册表包含 14 种语言", func(t *testing.T) {
		assert.Len(t, SupportedLanguages(), 14)
	})

	t.Run("按代码查名称", func(t *testing.T) {
		assert.Equal(t, "Spanish", LanguageName("es"))
		assert.Equal(t, "Chinese", LanguageName("zh"))
	})

	t.Run("未知代码回退为首字母大写", func(t *testing.T) {
		assert.Equal(t, "Xx", LanguageName("xx"))
	})

	t.Run("按名称反查代码", func(t *testing.T) {
		assert.Equal(t, "ar", LanguageCode("Arabic"))
		assert.Equal(t, "", LanguageCode("Klingon"))
	})

	t.Run("返回的是副本", func(t *testing.T) {
		langs := SupportedLanguages()
		langs[0].Name = "mutated"
		assert.Equal(t, "English", LanguageName("en"))
	})
}
