package handlers

import (
	"context"
	"net/http"
	"time"
)

func (suite *HandlersTestSuite) TestPostLikeAndComment() {
	alice, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")

	w := suite.form("/api/dashboard/posts", aliceToken, map[string]string{"text": "hello campus"},
		map[string][2]string{"file": {"quad.png", "png-bytes"}})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var post map[string]interface{}
	suite.decode(w, &post)
	postID := post["_id"].(string)
	suite.Contains(post["image"], "https://cdn.test/posts/")
	suite.Equal(alice.ID, post["user"].(map[string]interface{})["_id"])

	w = suite.form("/api/dashboard/posts", aliceToken, map[string]string{"text": "  "}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/dashboard/posts/"+postID+"/like", bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`["`+bob.ID+`"]`, w.Body.String())

	// liking notifies the author
	count, err := suite.kernel.Notifications().UnreadCount(context.Background(), alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)

	w = suite.do(http.MethodPut, "/api/dashboard/posts/"+postID+"/like", bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`[]`, w.Body.String())

	// self-likes do not notify
	w = suite.do(http.MethodPut, "/api/dashboard/posts/"+postID+"/like", aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	count, err = suite.kernel.Notifications().UnreadCount(context.Background(), alice.ID)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)

	w = suite.do(http.MethodPost, "/api/dashboard/posts/"+postID+"/comment", bobToken, map[string]string{"text": "nice"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var comments []map[string]interface{}
	suite.decode(w, &comments)
	suite.Require().Len(comments, 1)
	suite.Equal("nice", comments[0]["text"])
	suite.Equal("bob", comments[0]["user"].(map[string]interface{})["name"])

	// blank comments are rejected and not stored
	w = suite.do(http.MethodPost, "/api/dashboard/posts/"+postID+"/comment", bobToken, map[string]string{"text": " \n\t "})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("text", suite.errorBody(w)["field"])

	w = suite.do(http.MethodPut, "/api/dashboard/posts/missing/like", bobToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/api/dashboard/posts", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var feed []map[string]interface{}
	suite.decode(w, &feed)
	suite.Require().Len(feed, 1)
	suite.Len(feed[0]["comments"], 1)
	suite.Equal([]interface{}{alice.ID}, feed[0]["likes"])
}

func (suite *HandlersTestSuite) TestConnectionLifecycle() {
	alice, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")
	carol, _ := suite.createUser("carol", "MIT")

	w := suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": alice.ID})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Cannot connect to yourself", suite.errorBody(w)["message"])

	w = suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": bob.ID})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.JSONEq(`{"success":true,"message":"Request sent"}`, w.Body.String())

	w = suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": bob.ID})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Request already pending", suite.errorBody(w)["message"])
	suite.Equal("CONFLICT", suite.errorBody(w)["code"])

	// the reverse direction is the same pair
	w = suite.do(http.MethodPost, "/api/dashboard/connect", bobToken, map[string]string{"receiverId": alice.ID})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/dashboard/network", bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var network struct {
		Invitations []struct {
			ID   string                 `json:"_id"`
			User map[string]interface{} `json:"user"`
		} `json:"invitations"`
		Connections []map[string]interface{} `json:"connections"`
	}
	suite.decode(w, &network)
	suite.Require().Len(network.Invitations, 1)
	suite.Equal(alice.ID, network.Invitations[0].User["_id"])
	suite.Empty(network.Connections)
	connectionID := network.Invitations[0].ID

	// only the recipient may answer
	w = suite.do(http.MethodPost, "/api/dashboard/network/respond", aliceToken,
		map[string]string{"connectionId": connectionID, "action": "accept"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/dashboard/network/respond", bobToken,
		map[string]string{"connectionId": "missing", "action": "accept"})
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("Request not found", suite.errorBody(w)["message"])

	w = suite.do(http.MethodPost, "/api/dashboard/network/respond", bobToken,
		map[string]string{"connectionId": connectionID, "action": "accept"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.do(http.MethodPost, "/api/dashboard/network/respond", bobToken,
		map[string]string{"connectionId": connectionID, "action": "accept"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": bob.ID})
	suite.Equal("Already connected", suite.errorBody(w)["message"])
	suite.Equal("CONFLICT", suite.errorBody(w)["code"])

	w = suite.do(http.MethodGet, "/api/dashboard/network", aliceToken, nil)
	suite.decode(w, &network)
	suite.Require().Len(network.Connections, 1)
	suite.Equal(bob.ID, network.Connections[0]["_id"])

	w = suite.do(http.MethodGet, "/api/dashboard/suggestions", aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var suggestions []map[string]interface{}
	suite.decode(w, &suggestions)
	status := map[string]interface{}{}
	for _, s := range suggestions {
		status[s["_id"].(string)] = s["status"]
	}
	suite.Equal("accepted", status[bob.ID])
	suite.Equal("none", status[carol.ID])
	suite.NotContains(status, alice.ID)
}

func (suite *HandlersTestSuite) TestConnectionReject() {
	alice, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")

	suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": bob.ID})
	conn, err := suite.kernel.Connections().FindBetween(context.Background(), alice.ID, bob.ID)
	suite.Require().NoError(err)

	w := suite.do(http.MethodPost, "/api/dashboard/network/respond", bobToken,
		map[string]string{"connectionId": conn.ID, "action": "reject"})
	suite.Require().Equal(http.StatusOK, w.Code)

	// rejected requests are deleted, so a new one can be sent
	w = suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": bob.ID})
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestGroupReadsAreCachedAndInvalidated() {
	_, aliceToken := suite.createUser("alice", "MIT")
	_, bobToken := suite.createUser("bob", "MIT")

	groupID := suite.createGroup(aliceToken, "Robotics", "public")

	w := suite.do(http.MethodGet, "/api/groups/"+groupID, bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("MISS", suite.cacheStatus(w))
	w = suite.do(http.MethodGet, "/api/groups/"+groupID, bobToken, nil)
	suite.Equal("HIT", suite.cacheStatus(w))

	w = suite.do(http.MethodGet, "/api/groups", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	var list []map[string]interface{}
	suite.decode(w, &list)
	suite.Require().Len(list, 1)
	suite.Equal(false, list[0]["isMember"])
	w = suite.do(http.MethodGet, "/api/groups", bobToken, nil)
	suite.Equal("HIT", suite.cacheStatus(w))

	w = suite.do(http.MethodPost, "/api/groups/join-public", bobToken, map[string]string{"groupId": groupID})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.JSONEq(`{"success":true,"message":"Joined successfully"}`, w.Body.String())

	// the join drops the detail and the joiner's list
	w = suite.do(http.MethodGet, "/api/groups/"+groupID, bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	var detail struct {
		Members []map[string]interface{} `json:"members"`
	}
	suite.decode(w, &detail)
	suite.Len(detail.Members, 2)

	w = suite.do(http.MethodGet, "/api/groups", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	suite.decode(w, &list)
	suite.Equal(true, list[0]["isMember"])

	w = suite.do(http.MethodPost, "/api/groups/join-public", bobToken, map[string]string{"groupId": groupID})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGroupJoinRequestFlow() {
	_, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")

	groupID := suite.createGroup(aliceToken, "Chess", "private")

	w := suite.do(http.MethodPost, "/api/groups/join", bobToken, map[string]string{"groupId": groupID})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.JSONEq(`{"message":"Request sent successfully","groupId":"`+groupID+`"}`, w.Body.String())

	w = suite.do(http.MethodPost, "/api/groups/join", bobToken, map[string]string{"groupId": groupID})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodGet, "/api/groups/"+groupID+"/requests", bobToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/groups/"+groupID+"/requests", aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("MISS", suite.cacheStatus(w))
	var requests []map[string]interface{}
	suite.decode(w, &requests)
	suite.Require().Len(requests, 1)
	suite.Equal(bob.ID, requests[0]["_id"])

	w = suite.do(http.MethodPost, "/api/groups/handle-request", bobToken,
		map[string]string{"groupId": groupID, "requesterId": bob.ID, "action": "accept"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodPost, "/api/groups/handle-request", aliceToken,
		map[string]string{"groupId": groupID, "requesterId": bob.ID, "action": "maybe"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/groups/handle-request", aliceToken,
		map[string]string{"groupId": groupID, "requesterId": bob.ID, "action": "accept"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.JSONEq(`{"message":"Request accepted successfully"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/api/groups/"+groupID+"/requests", aliceToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	suite.JSONEq(`[]`, w.Body.String())

	// the approval reaches bob's notifications
	w = suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "GROUP_APPROVED")

	w = suite.do(http.MethodPost, "/api/groups/"+groupID+"/leave", bobToken, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/groups/"+groupID+"/leave", aliceToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodDelete, "/api/groups/"+groupID, bobToken, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodDelete, "/api/groups/"+groupID, aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"message":"Group deleted successfully"}`, w.Body.String())

	w = suite.do(http.MethodGet, "/api/groups/"+groupID, aliceToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestGroupCreateWithIcon() {
	_, token := suite.createUser("alice", "MIT")

	w := suite.form("/api/groups", token, map[string]string{"name": "Art", "description": "drawing"},
		map[string][2]string{"image": {"icon.jpg", "jpeg-bytes"}})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var group map[string]interface{}
	suite.decode(w, &group)
	suite.Contains(group["image"], "https://cdn.test/group_icons/")
	suite.Equal("public", group["privacy"])
	suite.Len(group["inviteCode"], 8)

	w = suite.form("/api/groups", token, map[string]string{"description": "nameless"}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("name is required", suite.errorBody(w)["message"])
}

func (suite *HandlersTestSuite) TestNotificationsEndpoints() {
	alice, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")

	w := suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	suite.JSONEq(`[]`, w.Body.String())
	w = suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Equal("HIT", suite.cacheStatus(w))

	w = suite.do(http.MethodPost, "/api/notifications", aliceToken, map[string]string{
		"recipientId": bob.ID,
		"type":        "message",
		"message":     "ping",
		"link":        "/chat",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	suite.decode(w, &created)
	suite.Equal(alice.ID, created["sender"].(map[string]interface{})["_id"])

	w = suite.do(http.MethodPost, "/api/notifications", aliceToken, map[string]string{
		"recipientId": bob.ID,
		"type":        "bogus",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	// creation invalidated bob's list
	w = suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	var list []map[string]interface{}
	suite.decode(w, &list)
	suite.Require().Len(list, 1)
	suite.Equal(false, list[0]["isRead"])

	w = suite.do(http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	suite.JSONEq(`{"count":1}`, w.Body.String())

	for i := 0; i < 2; i++ {
		w = suite.do(http.MethodPut, "/api/notifications/mark-read", bobToken, nil)
		suite.Require().Equal(http.StatusOK, w.Code)
		suite.JSONEq(`{"success":true}`, w.Body.String())
	}

	w = suite.do(http.MethodGet, "/api/notifications/unread-count", bobToken, nil)
	suite.JSONEq(`{"count":0}`, w.Body.String())
	w = suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	suite.decode(w, &list)
	suite.Equal(true, list[0]["isRead"])
}

func (suite *HandlersTestSuite) TestCacheEntriesExpire() {
	_, token := suite.createUser("alice", "MIT")

	suite.do(http.MethodGet, "/api/notifications", token, nil)
	w := suite.do(http.MethodGet, "/api/notifications", token, nil)
	suite.Equal("HIT", suite.cacheStatus(w))

	suite.mr.FastForward(6 * time.Minute)
	w = suite.do(http.MethodGet, "/api/notifications", token, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
}
