package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postPayload struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
	Cover   string `json:"cover"`
	Author  struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
}

func decodePost(t *testing.T, raw json.RawMessage) postPayload {
	t.Helper()
	var data struct {
		Post postPayload `json:"post"`
	}
	require.NoError(t, json.Unmarshal(raw, &data))
	return data.Post
}

func TestCreatePost_RoundTrip(t *testing.T) {
	env := newTestEnv()
	token, userID := env.registerAndLogin(t, "alice", "pw1234")

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts",
		`{"title":"Hi","summary":"s","content":"c","cover":"/img/1.png"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	created := decodePost(t, resp.Data)
	assert.Equal(t, "Hi", created.Title)
	assert.Equal(t, "s", created.Summary)
	assert.Equal(t, "c", created.Content)
	assert.Equal(t, "/img/1.png", created.Cover)
	assert.Equal(t, userID, created.Author.ID)
	assert.Equal(t, "alice", created.Author.Username)

	// getPost returns the same fields with the author resolved.
	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", created.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodePost(t, resp.Data)
	assert.Equal(t, created, fetched)
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	env := newTestEnv()

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"Hi","content":"c"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, resp.Code)
}

func TestCreatePost_SanitizesMarkup(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts",
		`{"title":"Hello","content":"<script>alert(1)</script><b>ok</b>"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	created := decodePost(t, resp.Data)
	assert.NotContains(t, created.Content, "<script>")
	assert.Contains(t, created.Content, "<b>ok</b>")
}

func TestCreatePost_EmptyTitleAfterSanitize(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts",
		`{"title":"<script>x</script>","content":"c"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40021, resp.Code)
}

func TestUpdatePost_AuthorOnly(t *testing.T) {
	env := newTestEnv()
	aliceToken, _ := env.registerAndLogin(t, "alice", "pw1234")
	bobToken, _ := env.registerAndLogin(t, "bob", "pw5678")

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"Hi","content":"c"}`, aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	post := decodePost(t, resp.Data)

	// A different authenticated user is rejected regardless of payload validity.
	w, resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", post.ID),
		`{"title":"Hijacked","content":"x"}`, bobToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40301, resp.Code)

	w, resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", post.ID),
		`{"not":"valid"}`, bobToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40301, resp.Code)

	// The author succeeds and fields follow last-writer-wins.
	w, resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", post.ID),
		`{"title":"Hi v2","summary":"s2","content":"c2"}`, aliceToken)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodePost(t, resp.Data)
	assert.Equal(t, "Hi v2", updated.Title)
	assert.Equal(t, "s2", updated.Summary)
	assert.Equal(t, "c2", updated.Content)
	assert.Equal(t, "alice", updated.Author.Username)
}

func TestUpdatePost_InvalidAndMissingID(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	w, resp := env.do(t, http.MethodPut, "/api/v1/posts/not-an-id", `{"title":"t","content":"c"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40026, resp.Code)

	w, resp = env.do(t, http.MethodPut, "/api/v1/posts/424242", `{"title":"t","content":"c"}`, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40403, resp.Code)
}

func TestGetPost_InvalidAndMissingID(t *testing.T) {
	env := newTestEnv()

	w, resp := env.do(t, http.MethodGet, "/api/v1/posts/not-an-id", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40027, resp.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/posts/424242", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40404, resp.Code)
}

func TestListPosts_LimitAndOrder(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	for i := 1; i <= 25; i++ {
		w, _ := env.do(t, http.MethodPost, "/api/v1/posts",
			fmt.Sprintf(`{"title":"post %d","content":"c"}`, i), token)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, resp := env.do(t, http.MethodGet, "/api/v1/posts?limit=20", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []postPayload `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Items, 20)

	// Newest first: post 25 leads, post 6 closes the window; the first
	// five posts are excluded.
	assert.Equal(t, "post 25", data.Items[0].Title)
	assert.Equal(t, "post 6", data.Items[19].Title)
	for _, item := range data.Items {
		assert.Equal(t, "alice", item.Author.Username)
	}
}

func TestListUserPosts_Pagination(t *testing.T) {
	env := newTestEnv()
	aliceToken, aliceID := env.registerAndLogin(t, "alice", "pw1234")
	bobToken, _ := env.registerAndLogin(t, "bob", "pw5678")

	for i := 1; i <= 12; i++ {
		w, _ := env.do(t, http.MethodPost, "/api/v1/posts",
			fmt.Sprintf(`{"title":"alice %d","content":"c"}`, i), aliceToken)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, _ := env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"bob 1","content":"c"}`, bobToken)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/posts?page=2&page_size=10", aliceID), "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items      []postPayload `json:"items"`
		Pagination struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Len(t, data.Items, 2)
	assert.Equal(t, int64(12), data.Pagination.Total)
	assert.Equal(t, 2, data.Pagination.TotalPages)
	for _, item := range data.Items {
		assert.Equal(t, "alice", item.Author.Username)
	}
}

func TestGetPost_StoreFailure(t *testing.T) {
	env := newTestEnvWith(newMemUserRepo(), failPostRepo{})

	w, resp := env.do(t, http.MethodGet, "/api/v1/posts/1", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50023, resp.Code)
}

func TestListPosts_StoreFailure(t *testing.T) {
	env := newTestEnvWith(newMemUserRepo(), failPostRepo{})

	w, resp := env.do(t, http.MethodGet, "/api/v1/posts", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 50022, resp.Code)
}

func TestGetPost_ServedFromCache(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"Hi","content":"c"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	post := decodePost(t, resp.Data)

	key := fmt.Sprintf("cache:post:detail:%d", post.ID)
	require.False(t, testRedis.Exists(key))

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, testRedis.Exists(key))

	// While the entry lives, reads serve the cached bytes verbatim.
	seeded := `{"code":0,"message":"success","data":{"post":{"title":"from cache"}}}`
	require.NoError(t, testRedis.Set(key, seeded))
	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, seeded, w.Body.String())
	assert.Equal(t, "from cache", decodePost(t, resp.Data).Title)
}

func TestUpdatePost_InvalidatesCaches(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	w, resp := env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"Hi","content":"c"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	post := decodePost(t, resp.Data)

	detailKey := fmt.Sprintf("cache:post:detail:%d", post.ID)
	listKey := "cache:posts:list:limit=20"

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodGet, "/api/v1/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, testRedis.Exists(detailKey))
	require.True(t, testRedis.Exists(listKey))

	w, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", post.ID),
		`{"title":"Hi v2","content":"c2"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, testRedis.Exists(detailKey))
	assert.False(t, testRedis.Exists(listKey))

	// The next read repopulates the cache with the updated post.
	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hi v2", decodePost(t, resp.Data).Title)
	assert.True(t, testRedis.Exists(detailKey))
}

func TestCreatePost_InvalidatesListCache(t *testing.T) {
	env := newTestEnv()
	token, _ := env.registerAndLogin(t, "alice", "pw1234")

	w, _ := env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"first","content":"c"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodGet, "/api/v1/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, testRedis.Exists("cache:posts:list:limit=20"))

	w, _ = env.do(t, http.MethodPost, "/api/v1/posts", `{"title":"second","content":"c"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, testRedis.Exists("cache:posts:list:limit=20"))

	w, resp := env.do(t, http.MethodGet, "/api/v1/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []postPayload `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Len(t, data.Items, 2)
	assert.Equal(t, "second", data.Items[0].Title)
}
